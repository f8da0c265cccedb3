package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glxcee/storm-tape/internal/probe"
)

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

// TestStage_S1_MixedStubAndOnDisk drives spec scenario S1: a stub and a
// fully allocated file posted in the same stage; status must show the
// stub still submitted and the on-disk file already completed, and
// archive-info must report TAPE and DISK_AND_TAPE respectively.
func TestStage_S1_MixedStubAndOnDisk(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "A", true, true)
	env.writeFile(t, "B", false, true)

	resp := postJSON(t, env.srv.URL+"/api/v1/stage", `{"files":[{"path":"/atlas/A"},{"path":"/atlas/B"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Location"))

	var staged stageResponse
	decodeBody(t, resp, &staged)
	require.NotEmpty(t, staged.RequestID)

	statusResp, err := http.Get(env.srv.URL + "/api/v1/stage/" + staged.RequestID)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	require.Equal(t, http.StatusOK, statusResp.StatusCode)

	var status statusResponse
	decodeBody(t, statusResp, &status)
	require.Len(t, status.Files, 2)
	assert.Equal(t, "submitted", status.Files[0].State)
	assert.Equal(t, "completed", status.Files[1].State)

	archResp := postJSON(t, env.srv.URL+"/api/v1/archiveinfo", `{"paths":["/atlas/A","/atlas/B"]}`)
	require.Equal(t, http.StatusOK, archResp.StatusCode)
	var entries []archiveInfoEntry
	decodeBody(t, archResp, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "TAPE", entries[0].Locality)
	assert.Equal(t, "DISK_AND_TAPE", entries[1].Locality)
}

// TestStage_S2_TakeOverAndCompletion continues S1: take-over hands out the
// stub, status moves it to started, and once the recaller finishes (full
// file on disk, sentinel cleared) status reports it completed.
func TestStage_S2_TakeOverAndCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "A", true, true)
	env.writeFile(t, "B", false, true)

	resp := postJSON(t, env.srv.URL+"/api/v1/stage", `{"files":[{"path":"/atlas/A"},{"path":"/atlas/B"}]}`)
	var staged stageResponse
	decodeBody(t, resp, &staged)

	// As in S1, a first status call completes the on-disk file B, leaving
	// only the stub A for the recaller.
	firstStatus, err := http.Get(env.srv.URL + "/api/v1/stage/" + staged.RequestID)
	require.NoError(t, err)
	firstStatus.Body.Close()

	readyResp, err := http.Get(env.srv.URL + "/api/v1/recalltable/ready-take-over")
	require.NoError(t, err)
	defer readyResp.Body.Close()
	body, _ := io.ReadAll(readyResp.Body)
	assert.Equal(t, "1\n", string(body))

	takeResp := postJSON(t, env.srv.URL+"/api/v1/recalltable/take-over", "first=10")
	require.Equal(t, http.StatusOK, takeResp.StatusCode)
	takeBody, _ := io.ReadAll(takeResp.Body)
	physicalA := env.physical("A")
	assert.Equal(t, "unused "+physicalA+"\n", string(takeBody))
	assert.True(t, env.prober.InProgress[physicalA])

	statusResp, err := http.Get(env.srv.URL + "/api/v1/stage/" + staged.RequestID)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	var status statusResponse
	decodeBody(t, statusResp, &status)
	assert.Equal(t, "started", status.Files[0].State)

	time.Sleep(time.Second)
	env.prober.Sizes[physicalA] = probe.FileSizeInfo{Size: 4, IsStub: false}
	env.prober.InProgress[physicalA] = false

	statusResp2, err := http.Get(env.srv.URL + "/api/v1/stage/" + staged.RequestID)
	require.NoError(t, err)
	defer statusResp2.Body.Close()
	var status2 statusResponse
	decodeBody(t, statusResp2, &status2)
	assert.Equal(t, "completed", status2.Files[0].State)
}

// TestStage_S3_Cancel drives spec scenario S3: cancelling every file of a
// stage leaves nothing recallable or in progress.
func TestStage_S3_Cancel(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "A", true, true)
	env.writeFile(t, "B", true, true)

	resp := postJSON(t, env.srv.URL+"/api/v1/stage", `{"files":[{"path":"/atlas/A"},{"path":"/atlas/B"}]}`)
	var staged stageResponse
	decodeBody(t, resp, &staged)

	cancelResp := postJSON(t, env.srv.URL+"/api/v1/stage/"+staged.RequestID+"/cancel", `{"paths":["/atlas/A","/atlas/B"]}`)
	require.Equal(t, http.StatusOK, cancelResp.StatusCode)

	statusResp, err := http.Get(env.srv.URL + "/api/v1/stage/" + staged.RequestID)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	var status statusResponse
	decodeBody(t, statusResp, &status)
	assert.Equal(t, "cancelled", status.Files[0].State)
	assert.Equal(t, "cancelled", status.Files[1].State)

	inProgResp, err := http.Get(env.srv.URL + "/api/v1/recalltable/in-progress")
	require.NoError(t, err)
	defer inProgResp.Body.Close()
	ipBody, _ := io.ReadAll(inProgResp.Body)
	assert.Empty(t, string(ipBody))

	readyResp, err := http.Get(env.srv.URL + "/api/v1/recalltable/ready-take-over")
	require.NoError(t, err)
	defer readyResp.Body.Close()
	readyBody, _ := io.ReadAll(readyResp.Body)
	assert.Equal(t, "0\n", string(readyBody))
}

// TestStage_S4_InvalidCancel drives spec scenario S4: cancelling a path
// that does not belong to the stage must leave it untouched and report
// exactly that path in the 400 response.
func TestStage_S4_InvalidCancel(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "A", true, true)
	env.writeFile(t, "B", true, true)

	resp := postJSON(t, env.srv.URL+"/api/v1/stage", `{"files":[{"path":"/atlas/A"},{"path":"/atlas/B"}]}`)
	var staged stageResponse
	decodeBody(t, resp, &staged)

	cancelResp := postJSON(t, env.srv.URL+"/api/v1/stage/"+staged.RequestID+"/cancel", `{"paths":["/atlas/A","/atlas/nonexistent"]}`)
	require.Equal(t, http.StatusBadRequest, cancelResp.StatusCode)

	var problem map[string]any
	decodeBody(t, cancelResp, &problem)
	detail, _ := problem["detail"].(string)
	assert.Contains(t, detail, "/atlas/nonexistent")
	assert.Contains(t, detail, "No modification has been made to this request.")

	statusResp, err := http.Get(env.srv.URL + "/api/v1/stage/" + staged.RequestID)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	var status statusResponse
	decodeBody(t, statusResp, &status)
	assert.Equal(t, "submitted", status.Files[0].State)
}

func TestStage_Create_UnresolvableAndDirectoryFilesStartFailed(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "A", false, false)
	require.NoError(t, os.Mkdir(env.physical("dir"), 0o755))

	resp := postJSON(t, env.srv.URL+"/api/v1/stage",
		`{"files":[{"path":"/atlas/A"},{"path":"/atlas/dir"},{"path":"/cms/missing"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var staged stageResponse
	decodeBody(t, resp, &staged)

	statusResp, err := http.Get(env.srv.URL + "/api/v1/stage/" + staged.RequestID)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	var status statusResponse
	decodeBody(t, statusResp, &status)
	assert.Equal(t, "completed", status.Files[0].State)
	assert.Equal(t, "failed", status.Files[1].State)
	assert.Equal(t, "failed", status.Files[2].State)
}

func TestStage_Create_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	resp := postJSON(t, env.srv.URL+"/api/v1/stage", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStage_Status_NotFound(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/api/v1/stage/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
