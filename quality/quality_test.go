package quality

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierOtherIsInvolution(t *testing.T) {
	for _, tier := range Tiers {
		assert.NotEqual(t, tier, tier.Other())
		assert.Equal(t, tier, tier.Other().Other())
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"low", Low, false},
		{"HIGH", High, false},
		{" High ", High, false},
		{"medium", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownTier, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseBodyAndShading(t *testing.T) {
	for _, b := range Bodies {
		got, err := ParseBody(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	_, err := ParseBody("sun")
	assert.ErrorIs(t, err, ErrUnknownBody)

	s, err := ParseShading("Lit")
	require.NoError(t, err)
	assert.Equal(t, Lit, s)
	_, err = ParseShading("pbr")
	assert.ErrorIs(t, err, ErrUnknownShading)
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	require.NoError(t, table.Validate())

	assert.Equal(t, Params{Texture: "earth_daymap_4k.jpg", Tessellation: 64}, table.Lookup(High, Earth))
	assert.Equal(t, Params{Texture: "earth_clouds_4k.png", Tessellation: 64}, table.Lookup(High, Clouds))
	assert.Equal(t, Params{Texture: "moon_720p.jpg", Tessellation: 32}, table.Lookup(High, Moon))
	assert.Equal(t, Params{Texture: "earth_daymap_2k.jpg", Tessellation: 32}, table.Lookup(Low, Earth))
	assert.Equal(t, Params{Texture: "earth_clouds_2k.png", Tessellation: 32}, table.Lookup(Low, Clouds))
	assert.Equal(t, Params{Texture: "moon_360p.jpg", Tessellation: 16}, table.Lookup(Low, Moon))

	assert.Equal(t, Lit, table[High].Shading)
	assert.Equal(t, Unlit, table[Low].Shading)
}

func TestValidateRejectsIncompleteTables(t *testing.T) {
	missingTier := DefaultTable()
	delete(missingTier, Low)
	assert.ErrorContains(t, missingTier.Validate(), "tier low")

	missingBody := DefaultTable()
	delete(missingBody[High].Bodies, Moon)
	assert.ErrorContains(t, missingBody.Validate(), "body moon")

	coarse := DefaultTable()
	coarse[Low].Bodies[Earth] = Params{Texture: "x.jpg", Tessellation: 2}
	assert.ErrorContains(t, coarse.Validate(), "tessellation 2")

	noTexture := DefaultTable()
	noTexture[Low].Bodies[Clouds] = Params{Tessellation: 8}
	assert.ErrorContains(t, noTexture.Validate(), "empty texture")
}

func TestParseManifestOverlaysDefaults(t *testing.T) {
	data := []byte(`
[low]
shading = "lit"

[low.moon]
tessellation = 12
`)
	table, err := ParseManifest(data, ".toml", DefaultTable())
	require.NoError(t, err)

	assert.Equal(t, Lit, table[Low].Shading)
	assert.Equal(t, Params{Texture: "moon_360p.jpg", Tessellation: 12}, table.Lookup(Low, Moon))
	assert.Equal(t, DefaultTable()[High], table[High])
}

func TestParseManifestYAML(t *testing.T) {
	data := []byte(`
high:
  earth:
    texture: earth_daymap_8k.jpg
`)
	table, err := ParseManifest(data, ".yaml", DefaultTable())
	require.NoError(t, err)
	assert.Equal(t, Params{Texture: "earth_daymap_8k.jpg", Tessellation: 64}, table.Lookup(High, Earth))
	assert.Equal(t, Lit, table[High].Shading)
}

func TestParseManifestErrors(t *testing.T) {
	_, err := ParseManifest([]byte("[ultra.earth]\ntexture = \"a.jpg\"\n"), ".toml", DefaultTable())
	assert.ErrorIs(t, err, ErrUnknownTier)

	_, err = ParseManifest([]byte("[low]\nshading = \"pbr\"\n"), ".toml", DefaultTable())
	assert.ErrorIs(t, err, ErrUnknownShading)

	// without a base the partial file is incomplete
	_, err = ParseManifest([]byte("[low.earth]\ntexture = \"a.jpg\"\ntessellation = 8\n"), ".toml", nil)
	assert.Error(t, err)

	_, err = ParseManifest([]byte("not = [valid"), ".toml", nil)
	assert.ErrorContains(t, err, "decode toml")
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quality.toml")
	require.NoError(t, os.WriteFile(path, []byte("[high.clouds]\ntexture = \"clouds_8k.png\"\n"), 0o644))

	table, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "clouds_8k.png", table.Lookup(High, Clouds).Texture)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSettingsToggleRoundTrip(t *testing.T) {
	s, err := NewSettings(DefaultTable(), High)
	require.NoError(t, err)

	initial := s.Current()
	assert.Equal(t, High, initial.Tier)

	low := s.Toggle()
	assert.Equal(t, Low, low.Tier)
	assert.Equal(t, Low, s.Tier())
	assert.Equal(t, Unlit, low.Shading)
	for _, b := range Bodies {
		assert.Equal(t, DefaultTable().Lookup(Low, b), low.Params(b), b.String())
	}

	back := s.Toggle()
	assert.Equal(t, initial, back)
}

func TestSettingsSnapshotIsDetached(t *testing.T) {
	s, err := NewSettings(DefaultTable(), Low)
	require.NoError(t, err)

	snap := s.Current()
	snap.Bodies[Earth] = Params{Texture: "mutated.jpg", Tessellation: 3}
	assert.Equal(t, "earth_daymap_2k.jpg", s.Current().Params(Earth).Texture)
}

func TestSettingsSet(t *testing.T) {
	s, err := NewSettings(DefaultTable(), Low)
	require.NoError(t, err)

	assert.Equal(t, High, s.Set(High).Tier)
	assert.Equal(t, High, s.Set(Tier(7)).Tier)
}

func TestNewSettingsRejectsInvalidInput(t *testing.T) {
	_, err := NewSettings(Table{}, Low)
	assert.Error(t, err)

	_, err = NewSettings(DefaultTable(), Tier(9))
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestSettingsSetTable(t *testing.T) {
	s, err := NewSettings(DefaultTable(), High)
	require.NoError(t, err)

	next := DefaultTable()
	next[High].Bodies[Moon] = Params{Texture: "moon_4k.jpg", Tessellation: 48}
	snap, err := s.SetTable(next)
	require.NoError(t, err)
	assert.Equal(t, High, snap.Tier)
	assert.Equal(t, 48, snap.Params(Moon).Tessellation)

	_, err = s.SetTable(Table{})
	assert.Error(t, err)
	assert.Equal(t, 48, s.Current().Params(Moon).Tessellation)

	got := s.Table()
	assert.Equal(t, 48, got.Lookup(s.Tier(), Moon).Tessellation)
	got[s.Tier()].Bodies[Moon] = Params{Texture: "x.jpg", Tessellation: 5}
	assert.Equal(t, 48, s.Current().Params(Moon).Tessellation, "Table must return a copy")
}

func TestWatchManifestDeliversReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quality.toml")
	require.NoError(t, os.WriteFile(path, []byte("[low.earth]\ntessellation = 8\n"), 0o644))

	mw, err := WatchManifest(path, nil)
	require.NoError(t, err)
	defer mw.Close()

	// replace atomically so the watcher never reads a half-written file
	tmp := filepath.Join(dir, "quality.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("[low.earth]\ntessellation = 24\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case table := <-mw.Updates():
		assert.Equal(t, 24, table.Lookup(Low, Earth).Tessellation)
	case <-time.After(5 * time.Second):
		t.Fatal("no manifest update delivered")
	}
}

func TestWatchManifestIgnoresTruncatedSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quality.toml")
	require.NoError(t, os.WriteFile(path, []byte("[low.earth]\ntessellation = 8\n"), 0o644))

	mw, err := WatchManifest(path, nil)
	require.NoError(t, err)
	defer mw.Close()

	// an in-place save: broken content, then a truncate, then the real write
	require.NoError(t, os.WriteFile(path, []byte("[low.earth\n"), 0o644))
	time.Sleep(4 * DefaultSettleDelay)
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	time.Sleep(4 * DefaultSettleDelay)

	select {
	case table := <-mw.Updates():
		t.Fatalf("unexpected update with low earth tessellation %d", table.Lookup(Low, Earth).Tessellation)
	default:
	}

	require.NoError(t, os.WriteFile(path, []byte("[low.earth]\ntessellation = 9\n"), 0o644))

	select {
	case table := <-mw.Updates():
		assert.Equal(t, 9, table.Lookup(Low, Earth).Tessellation)
	case <-time.After(5 * time.Second):
		t.Fatal("no manifest update delivered")
	}
}

func TestManifestWatcherCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quality.toml")
	require.NoError(t, os.WriteFile(path, []byte("[low.earth]\ntessellation = 8\n"), 0o644))

	mw, err := WatchManifest(path, nil)
	require.NoError(t, err)

	require.NoError(t, mw.Close())
	assert.NotPanics(t, func() { _ = mw.Close() })
}
