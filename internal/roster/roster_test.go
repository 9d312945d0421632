package roster

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nba-alumni-digest/internal/models"
	"nba-alumni-digest/internal/retry"
	"nba-alumni-digest/internal/schema"
)

// fakeStatsAPI serves canned listing and biography tables and counts
// provider hits.
type fakeStatsAPI struct {
	listing    schema.Table
	listingErr error
	bios       map[int]schema.Table
	bioErrs    map[int]error
	listCalls  int
	bioCalls   map[int]int
}

func newFakeStatsAPI() *fakeStatsAPI {
	return &fakeStatsAPI{
		bios:     make(map[int]schema.Table),
		bioErrs:  make(map[int]error),
		bioCalls: make(map[int]int),
	}
}

func (f *fakeStatsAPI) ActivePlayers(ctx context.Context) (schema.Table, error) {
	f.listCalls++
	return f.listing, f.listingErr
}

func (f *fakeStatsAPI) PlayerInfo(ctx context.Context, playerID int) (schema.Table, error) {
	f.bioCalls[playerID]++
	if err, ok := f.bioErrs[playerID]; ok {
		return schema.Table{}, err
	}
	return f.bios[playerID], nil
}

func (f *fakeStatsAPI) addBio(playerID int, school string) {
	f.bios[playerID] = schema.Table{
		Headers: []string{"PERSON_ID", "SCHOOL"},
		Rows:    [][]any{{float64(playerID), school}},
	}
}

func activeListing(rows ...[]any) schema.Table {
	return schema.Table{
		Headers: []string{"PERSON_ID", "DISPLAY_FIRST_LAST", "ROSTERSTATUS"},
		Rows:    rows,
	}
}

func fastDiscovery(t *testing.T, api StatsAPI, cfg DiscoveryConfig) *Discovery {
	t.Helper()
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}
	}
	d := NewDiscovery(api, LoadSchoolCache(filepath.Join(t.TempDir(), "schools.json"), nil), cfg)
	d.sleep = func(time.Duration) {}
	return d
}

func TestStaticList_ResolveReturnsConfiguredIDs(t *testing.T) {
	ids, err := StaticList{101, 202}.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{101, 202}, ids)
}

func TestDiscovery_MatchesSchoolSubstringCaseInsensitive(t *testing.T) {
	api := newFakeStatsAPI()
	api.listing = activeListing(
		[]any{float64(555), "Alumni Guard", float64(1)},
		[]any{float64(777), "Other Forward", float64(1)},
	)
	api.addBio(555, "Duke")
	api.addBio(777, "Kentucky")

	d := fastDiscovery(t, api, DiscoveryConfig{
		School:    "DUKE",
		CachePath: filepath.Join(t.TempDir(), "tracked.json"),
	})

	ids, err := d.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{555}, ids)
}

func TestDiscovery_SkipsInactiveAndZeroIDRows(t *testing.T) {
	api := newFakeStatsAPI()
	api.listing = activeListing(
		[]any{float64(0), "Ghost Row", float64(1)},
		[]any{float64(555), "Retired Alum", float64(0)},
		[]any{float64(888), "Active Alum", float64(1)},
	)
	api.addBio(888, "Duke University")

	d := fastDiscovery(t, api, DiscoveryConfig{
		School:    "duke",
		CachePath: filepath.Join(t.TempDir(), "tracked.json"),
	})

	ids, err := d.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{888}, ids)
	assert.Zero(t, api.bioCalls[555], "Inactive players should not cost a biography probe")
}

func TestDiscovery_BiographyFailureSkipsPlayerNotRun(t *testing.T) {
	api := newFakeStatsAPI()
	api.listing = activeListing(
		[]any{float64(555), "Lookup Fails", float64(1)},
		[]any{float64(888), "Lookup Works", float64(1)},
	)
	api.bioErrs[555] = errors.New("player not found")
	api.addBio(888, "Duke")

	d := fastDiscovery(t, api, DiscoveryConfig{
		School:    "duke",
		CachePath: filepath.Join(t.TempDir(), "tracked.json"),
	})

	ids, err := d.Resolve(context.Background())
	require.NoError(t, err, "One bad biography must not fail the whole pass")
	assert.Equal(t, []int{888}, ids)
}

func TestDiscovery_ListingFailurePropagates(t *testing.T) {
	api := newFakeStatsAPI()
	api.listingErr = errors.New("upstream down")

	d := fastDiscovery(t, api, DiscoveryConfig{
		School:    "duke",
		CachePath: filepath.Join(t.TempDir(), "tracked.json"),
	})

	_, err := d.Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list active players")
}

func TestDiscovery_FreshCacheShortCircuitsProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracked.json")
	writeTrackedCache(t, path, time.Now().Add(-12*time.Hour), []int{555, 888})

	api := newFakeStatsAPI()
	d := fastDiscovery(t, api, DiscoveryConfig{
		School:     "duke",
		CachePath:  path,
		MaxAgeDays: 30,
	})

	ids, err := d.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{555, 888}, ids)
	assert.Zero(t, api.listCalls, "Fresh cache must not hit the provider")
}

func TestDiscovery_CacheFreshnessBoundary(t *testing.T) {
	tests := []struct {
		name      string
		age       time.Duration
		wantFresh bool
	}{
		{name: "well within window", age: 24 * time.Hour, wantFresh: true},
		{name: "exactly at boundary", age: 30 * 24 * time.Hour, wantFresh: true},
		{name: "one day past boundary", age: 31 * 24 * time.Hour, wantFresh: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tracked.json")
			now := time.Now()
			writeTrackedCache(t, path, now.Add(-tt.age), []int{555})

			api := newFakeStatsAPI()
			api.listing = activeListing([]any{float64(888), "Fresh Alum", float64(1)})
			api.addBio(888, "Duke")

			d := fastDiscovery(t, api, DiscoveryConfig{
				School:     "duke",
				CachePath:  path,
				MaxAgeDays: 30,
			})
			d.now = func() time.Time { return now }

			ids, err := d.Resolve(context.Background())
			require.NoError(t, err)
			if tt.wantFresh {
				assert.Equal(t, []int{555}, ids)
				assert.Zero(t, api.listCalls)
			} else {
				assert.Equal(t, []int{888}, ids)
				assert.Equal(t, 1, api.listCalls)
			}
		})
	}
}

func TestDiscovery_MalformedCacheForcesRediscovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracked.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	api := newFakeStatsAPI()
	api.listing = activeListing([]any{float64(555), "Alum", float64(1)})
	api.addBio(555, "Duke")

	d := fastDiscovery(t, api, DiscoveryConfig{
		School:     "duke",
		CachePath:  path,
		MaxAgeDays: 30,
	})

	ids, err := d.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{555}, ids)
	assert.Equal(t, 1, api.listCalls, "Malformed cache is a miss, not a crash")
}

func TestDiscovery_EmptyPassDoesNotOverwriteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracked.json")
	staleTime := time.Now().Add(-45 * 24 * time.Hour)
	writeTrackedCache(t, path, staleTime, []int{555})

	api := newFakeStatsAPI()
	api.listing = activeListing([]any{float64(777), "Not An Alum", float64(1)})
	api.addBio(777, "Kentucky")

	d := fastDiscovery(t, api, DiscoveryConfig{
		School:     "duke",
		CachePath:  path,
		MaxAgeDays: 30,
	})

	ids, err := d.Resolve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var cf cacheFile
	require.NoError(t, json.Unmarshal(raw, &cf))
	assert.Equal(t, []int{555}, cf.PlayerIDs, "Empty discovery must preserve the previous cache")
}

func TestDiscovery_SuccessfulPassWritesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracked.json")

	api := newFakeStatsAPI()
	api.listing = activeListing([]any{float64(555), "Alumni Guard", float64(1)})
	api.addBio(555, "Duke")

	d := fastDiscovery(t, api, DiscoveryConfig{
		School:     "duke",
		CachePath:  path,
		MaxAgeDays: 30,
	})

	_, err := d.Resolve(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var cf cacheFile
	require.NoError(t, json.Unmarshal(raw, &cf))
	assert.Equal(t, []int{555}, cf.PlayerIDs)
	assert.Equal(t, []models.TrackedPlayer{{ID: 555, Name: "Alumni Guard", School: "Duke"}}, cf.Players)

	_, err = time.Parse(time.RFC3339, cf.Timestamp)
	assert.NoError(t, err)
}

func TestDiscovery_SchoolCacheSkipsBiographyProbe(t *testing.T) {
	dir := t.TempDir()
	schoolPath := filepath.Join(dir, "schools.json")
	require.NoError(t, os.WriteFile(schoolPath, []byte(`{"555": "Duke"}`), 0o644))

	api := newFakeStatsAPI()
	api.listing = activeListing([]any{float64(555), "Cached Alum", float64(1)})

	slept := 0
	d := NewDiscovery(api, LoadSchoolCache(schoolPath, nil), DiscoveryConfig{
		School:    "duke",
		CachePath: filepath.Join(dir, "tracked.json"),
		Retry:     retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond},
	})
	d.sleep = func(time.Duration) { slept++ }

	ids, err := d.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{555}, ids)
	assert.Zero(t, api.bioCalls[555], "Cached school must not cost a biography probe")
	assert.Zero(t, slept, "No politeness pause when the provider was not hit")
}

func writeTrackedCache(t *testing.T, path string, ts time.Time, ids []int) {
	t.Helper()
	data, err := json.MarshalIndent(cacheFile{
		Timestamp: ts.UTC().Format(time.RFC3339),
		PlayerIDs: ids,
	}, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestSchoolCache_MissingFileStartsEmpty(t *testing.T) {
	c := LoadSchoolCache(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Zero(t, c.Len())
}

func TestSchoolCache_MalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schools.json")
	require.NoError(t, os.WriteFile(path, []byte("][,"), 0o644))

	c := LoadSchoolCache(path, nil)
	assert.Zero(t, c.Len())
}

func TestSchoolCache_PutPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schools.json")
	ctx := context.Background()

	c := LoadSchoolCache(path, nil)
	require.NoError(t, c.Put(ctx, 555, "Duke"))
	require.NoError(t, c.Put(ctx, 777, ""))

	reloaded := LoadSchoolCache(path, nil)
	assert.Equal(t, 2, reloaded.Len())

	school, ok := reloaded.Get(ctx, 555)
	require.True(t, ok)
	assert.Equal(t, "Duke", school)

	school, ok = reloaded.Get(ctx, 777)
	require.True(t, ok, "Empty school is a valid cached fact, not a miss")
	assert.Equal(t, "", school)
}

// fakeMirror is an in-memory Mirror.
type fakeMirror struct {
	entries map[int]string
	sets    int
}

func (m *fakeMirror) GetSchool(ctx context.Context, playerID int) (string, bool) {
	s, ok := m.entries[playerID]
	return s, ok
}

func (m *fakeMirror) SetSchool(ctx context.Context, playerID int, school string) {
	m.entries[playerID] = school
	m.sets++
}

func TestSchoolCache_MirrorHitCopiedBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schools.json")
	mirror := &fakeMirror{entries: map[int]string{555: "Duke"}}

	c := LoadSchoolCache(path, mirror)
	school, ok := c.Get(context.Background(), 555)
	require.True(t, ok)
	assert.Equal(t, "Duke", school)

	// The hit should now be durable without the mirror
	reloaded := LoadSchoolCache(path, nil)
	school, ok = reloaded.Get(context.Background(), 555)
	require.True(t, ok)
	assert.Equal(t, "Duke", school)
}

func TestSchoolCache_PutWritesThroughToMirror(t *testing.T) {
	mirror := &fakeMirror{entries: make(map[int]string)}
	c := LoadSchoolCache(filepath.Join(t.TempDir(), "schools.json"), mirror)

	require.NoError(t, c.Put(context.Background(), 555, "Duke"))
	assert.Equal(t, "Duke", mirror.entries[555])
	assert.Equal(t, 1, mirror.sets)
}
