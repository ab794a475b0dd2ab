package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"plantkeeper/internal/config"
	"plantkeeper/internal/core"
	"plantkeeper/internal/remote"
	"plantkeeper/internal/types"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves the collection endpoints from memory.
type fakeBackend struct {
	mu       sync.Mutex
	records  map[string][]json.RawMessage
	lastAuth string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{records: map[string][]json.RawMessage{}}
}

func (b *fakeBackend) seed(collection string, v interface{}) {
	data, _ := json.Marshal(v)
	b.mu.Lock()
	b.records[collection] = append(b.records[collection], data)
	b.mu.Unlock()
}

func recordID(raw json.RawMessage) string {
	var r struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &r)
	return r.ID
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastAuth = r.Header.Get("Authorization")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	collection := parts[0]
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		items := b.records[collection]
		if items == nil {
			items = []json.RawMessage{}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": items})
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		id := recordID(body)
		kept := []json.RawMessage{json.RawMessage(body)}
		for _, existing := range b.records[collection] {
			if recordID(existing) != id {
				kept = append(kept, existing)
			}
		}
		b.records[collection] = kept
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": json.RawMessage(body)})
	case http.MethodDelete:
		id := parts[len(parts)-1]
		var kept []json.RawMessage
		for _, existing := range b.records[collection] {
			if recordID(existing) != id {
				kept = append(kept, existing)
			}
		}
		b.records[collection] = kept
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]bool{"success": true}})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *fakeBackend) auth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAuth
}

// setupCLI points the global config at a temp workspace and the given backend.
func setupCLI(t *testing.T, backendURL string) string {
	t.Helper()
	dir := t.TempDir()

	c := config.DefaultConfig()
	c.AI.APIKey = ""
	c.Backend.BaseURL = backendURL
	c.Backend.Timeout = "2s"
	c.Storage.DatabasePath = filepath.Join(dir, "plantkeeper.db")
	c.Session.File = filepath.Join(dir, "session.json")

	cfg = c
	jsonOutput = true
	timeout = 10 * time.Second
	t.Cleanup(func() {
		cfg = nil
		jsonOutput = false
		gardenNickname, gardenLocation, gardenNotes = "", "", ""
		signinToken, signinUserID = "", ""
		listPlantID = ""
	})
	return dir
}

func newTestCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(ctx)
	return cmd, &out
}

func decode[T any](t *testing.T, out *bytes.Buffer) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(out.Bytes(), &v), "output: %s", out.String())
	return v
}

type whoamiOutput struct {
	Namespace     string `json:"namespace"`
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId"`
}

func TestWhoamiGuestIsStableAcrossRuns(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend())
	defer srv.Close()
	setupCLI(t, srv.URL)

	cmd, out := newTestCmd(t)
	require.NoError(t, runWhoami(cmd, nil))
	first := decode[whoamiOutput](t, out)
	assert.True(t, strings.HasPrefix(first.Namespace, "guest:"), first.Namespace)
	assert.False(t, first.Authenticated)

	cmd, out = newTestCmd(t)
	require.NoError(t, runWhoami(cmd, nil))
	second := decode[whoamiOutput](t, out)
	assert.Equal(t, first.Namespace, second.Namespace)
}

func TestGardenLifecycle(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(remote.CollectionIdentifications, types.PlantIdentification{
		ID:             "ident-1",
		PlantName:      "Fiddle Leaf Fig",
		ScientificName: "Ficus lyrata",
	})
	srv := httptest.NewServer(backend)
	defer srv.Close()
	setupCLI(t, srv.URL)

	gardenNickname = "Fig"
	gardenLocation = "Living room"
	cmd, out := newTestCmd(t)
	require.NoError(t, runGardenAdd(cmd, []string{"ident-1"}))
	added := decode[types.UserPlant](t, out)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "ident-1", added.IdentificationID)
	assert.Equal(t, "Fig", added.Nickname)
	assert.Equal(t, "Living room", added.Location)
	assert.Nil(t, added.LastWatered)

	cmd, out = newTestCmd(t)
	require.NoError(t, runGardenWater(cmd, []string{added.ID}))
	watered := decode[types.UserPlant](t, out)
	require.NotNil(t, watered.LastWatered)
	assert.Equal(t, "Fig", watered.Nickname)

	cmd, out = newTestCmd(t)
	require.NoError(t, runList(cmd, []string{"garden"}))
	garden := decode[[]types.UserPlant](t, out)
	require.Len(t, garden, 1)
	assert.NotNil(t, garden[0].LastWatered)

	cmd, _ = newTestCmd(t)
	require.NoError(t, runGardenRemove(cmd, []string{added.ID}))

	cmd, out = newTestCmd(t)
	require.NoError(t, runList(cmd, []string{"garden"}))
	assert.Empty(t, decode[[]types.UserPlant](t, out))
}

func TestGardenAddUnknownIdentification(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend())
	defer srv.Close()
	setupCLI(t, srv.URL)

	cmd, _ := newTestCmd(t)
	err := runGardenAdd(cmd, []string{"missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGardenUpdateRequiresAField(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend())
	defer srv.Close()
	setupCLI(t, srv.URL)

	cmd, _ := newTestCmd(t)
	err := runGardenUpdate(cmd, []string{"p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestListServesCacheWhenBackendIsDown(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(remote.CollectionGarden, types.UserPlant{ID: "p1", IdentificationID: "ident-1", Nickname: "Fern"})
	srv := httptest.NewServer(backend)
	setupCLI(t, srv.URL)

	cmd, out := newTestCmd(t)
	require.NoError(t, runList(cmd, []string{"garden"}))
	require.Len(t, decode[[]types.UserPlant](t, out), 1)

	srv.Close()

	cmd, out = newTestCmd(t)
	require.NoError(t, runList(cmd, []string{"garden"}))
	cached := decode[[]types.UserPlant](t, out)
	require.Len(t, cached, 1)
	assert.Equal(t, "Fern", cached[0].Nickname)

	cmd, _ = newTestCmd(t)
	err := runGardenWater(cmd, []string{"p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing was saved")
}

func TestListAllWithoutKind(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(remote.CollectionHealthRecords, types.PlantHealth{ID: "h1", PlantID: "p1", HealthStatus: types.HealthPest})
	backend.seed(remote.CollectionHealthRecords, types.PlantHealth{ID: "h2", PlantID: "p2", HealthStatus: types.HealthHealthy})
	srv := httptest.NewServer(backend)
	defer srv.Close()
	setupCLI(t, srv.URL)

	cmd, out := newTestCmd(t)
	require.NoError(t, runList(cmd, nil))
	all := decode[listing](t, out)
	assert.Empty(t, all.Identifications)
	assert.Len(t, all.HealthRecords, 2)
	assert.Empty(t, all.Garden)

	listPlantID = "p2"
	cmd, out = newTestCmd(t)
	require.NoError(t, runList(cmd, []string{"health"}))
	health := decode[[]types.PlantHealth](t, out)
	require.Len(t, health, 1)
	assert.Equal(t, "h2", health[0].ID)
}

func TestSigninSignout(t *testing.T) {
	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	defer srv.Close()
	dir := setupCLI(t, srv.URL)

	signinToken = "opaque-access-token"
	signinUserID = "u1"
	cmd, out := newTestCmd(t)
	require.NoError(t, runSignin(cmd, nil))
	report := decode[syncReport](t, out)
	assert.Equal(t, "user:u1", string(report.Namespace))
	assert.Equal(t, "Bearer opaque-access-token", backend.auth())

	_, err := os.Stat(filepath.Join(dir, "session.json"))
	require.NoError(t, err, "session file should be written")

	// A fresh process picks the session up from the file.
	cmd, out = newTestCmd(t)
	require.NoError(t, runWhoami(cmd, nil))
	who := decode[whoamiOutput](t, out)
	assert.True(t, who.Authenticated)
	assert.Equal(t, "u1", who.UserID)

	cmd, out = newTestCmd(t)
	require.NoError(t, runSignout(cmd, nil))
	report = decode[syncReport](t, out)
	assert.True(t, strings.HasPrefix(string(report.Namespace), "guest:"), report.Namespace)

	_, err = os.Stat(filepath.Join(dir, "session.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSigninRequiresToken(t *testing.T) {
	setupCLI(t, "http://127.0.0.1:1")
	t.Setenv("PLANTKEEPER_ACCESS_TOKEN", "")

	cmd, _ := newTestCmd(t)
	err := runSignin(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access token")
}

func TestIdentifyWithoutAnalyzer(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend())
	defer srv.Close()
	dir := setupCLI(t, srv.URL)

	img := filepath.Join(dir, "leaf.jpg")
	require.NoError(t, os.WriteFile(img, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0644))

	cmd, _ := newTestCmd(t)
	err := runIdentify(cmd, []string{img})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrAnalyzerUnavailable)
	assert.NotContains(t, err.Error(), "nothing was saved")
}

func TestWriteFailedHints(t *testing.T) {
	err := writeFailed("water", core.ErrNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NotContains(t, err.Error(), "nothing was saved")

	err = writeFailed("water", remote.ErrRemote)
	assert.ErrorIs(t, err, remote.ErrRemote)
	assert.Contains(t, err.Error(), "backend rejected")

	err = writeFailed("water", errors.New("dial tcp: connection refused"))
	assert.Contains(t, err.Error(), "try again")
}

func TestMarkdownRendering(t *testing.T) {
	md := identificationMarkdown(types.PlantIdentification{
		ID:             "1",
		PlantName:      "Fiddle Leaf Fig",
		ScientificName: "Ficus lyrata",
		IsToxic:        true,
		ToxicityInfo:   "Sap irritates skin.",
		CommonPests:    []string{"Spider mites"},
	})
	assert.Contains(t, md, "# Fiddle Leaf Fig")
	assert.Contains(t, md, "**Toxic.** Sap irritates skin.")
	assert.Contains(t, md, "- Spider mites")

	hm := healthMarkdown(types.PlantHealth{
		ID:           "2",
		HealthStatus: types.HealthPest,
		Diagnosis:    types.Diagnosis{Condition: "Spider mite infestation"},
		Prevention:   []string{"Raise humidity"},
	})
	assert.Contains(t, hm, "# Spider mite infestation")
	assert.Contains(t, hm, "### Prevention")
	assert.NotContains(t, hm, "### Do now")
}
