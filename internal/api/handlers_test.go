package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ext_builder_server/internal/ai"
	"ext_builder_server/internal/shell"
	"ext_builder_server/internal/types"
	"ext_builder_server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct {
	result types.ExtensionResult
	err    error
	block  chan struct{}
}

func (g *stubGenerator) GenerateExtension(ctx context.Context, _ string) (types.ExtensionResult, error) {
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return types.ExtensionResult{}, ctx.Err()
		}
	}
	return g.result, g.err
}

func darkMode() types.ExtensionResult {
	return types.ExtensionResult{
		Name:        "Dark Mode Toggle",
		Description: "Bật/tắt chế độ tối.",
		Files: []types.ExtensionFile{
			{Path: "manifest.json", Content: `{"manifest_version": 3}`},
			{Path: "popup.html", Content: "<button>Toggle</button>"},
			{Path: "popup.js", Content: "console.log('dark')"},
		},
	}
}

type testServer struct {
	router *gin.Engine
	shells *shell.Registry
	cookie *http.Cookie
}

func newTestServer(gen shell.Generator) *testServer {
	shells := shell.NewRegistry(gen)
	h := NewAPIHandler(shells, time.Minute)
	return &testServer{router: NewRouter(h), shells: shells}
}

// sessionShell returns the shell behind the server's current cookie.
func (s *testServer) sessionShell(t *testing.T) *shell.Shell {
	t.Helper()
	require.NotNil(t, s.cookie)
	id, err := uuid.Parse(s.cookie.Value)
	require.NoError(t, err)
	return s.shells.Get(id)
}

// do sends a request, carrying the session cookie across calls.
func (s *testServer) do(t *testing.T, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			s.cookie = c
		}
	}
	return w
}

func (s *testServer) generate(t *testing.T, prompt string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(GenerateRequest{Prompt: prompt})
	require.NoError(t, err)
	return s.do(t, http.MethodPost, "/api/extension/generate", string(body), "application/json")
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) shell.State {
	t.Helper()
	var st shell.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	return st
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubGenerator{})
	w := s.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetState_NewSession(t *testing.T) {
	s := newTestServer(&stubGenerator{})
	w := s.do(t, http.MethodGet, "/api/extension", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, s.cookie, "a session cookie should be issued")
	assert.Equal(t, types.StatusIdle, decodeState(t, w).Status)
}

func TestGenerateExtension_Success(t *testing.T) {
	s := newTestServer(&stubGenerator{result: darkMode()})

	w := s.generate(t, "Dark mode toggle")
	require.Equal(t, http.StatusOK, w.Code)

	st := decodeState(t, w)
	assert.Equal(t, types.StatusSuccess, st.Status)
	require.NotNil(t, st.Result)
	assert.Equal(t, "Dark Mode Toggle", st.Result.Name)
	assert.Len(t, st.Result.Files, 3)

	w = s.do(t, http.MethodGet, "/api/extension", "", "")
	assert.Equal(t, types.StatusSuccess, decodeState(t, w).Status)
}

func TestGenerateExtension_BadRequests(t *testing.T) {
	s := newTestServer(&stubGenerator{result: darkMode()})

	w := s.do(t, http.MethodPost, "/api/extension/generate", `{}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.generate(t, "   ")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/extension", "", "")
	assert.Equal(t, types.StatusIdle, decodeState(t, w).Status)
}

func TestGenerateExtension_Failure(t *testing.T) {
	s := newTestServer(&stubGenerator{err: &ai.GenerationError{
		Message: "API key not valid. Please pass a valid API key.",
		Kind:    utils.KindAuth,
		Err:     errors.New("400 Bad Request"),
	}})

	w := s.generate(t, "anything")
	require.Equal(t, http.StatusBadGateway, w.Code)

	st := decodeState(t, w)
	assert.Equal(t, types.StatusError, st.Status)
	assert.Equal(t, "API key not valid. Please pass a valid API key.", st.Error)
	assert.Nil(t, st.Result)
}

func TestGenerateExtension_Conflict(t *testing.T) {
	gen := &stubGenerator{result: darkMode(), block: make(chan struct{})}
	s := newTestServer(gen)

	form := url.Values{"prompt": {"first"}}.Encode()
	w := s.do(t, http.MethodPost, "/generate", form, "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = s.generate(t, "second")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http-equiv="refresh"`)

	close(gen.block)
	require.Eventually(t, func() bool {
		w := s.do(t, http.MethodGet, "/api/extension", "", "")
		return decodeState(t, w).Status == types.StatusSuccess
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetFile(t *testing.T) {
	s := newTestServer(&stubGenerator{result: darkMode()})

	w := s.do(t, http.MethodGet, "/api/extension/files/0", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, s.generate(t, "dark").Code)

	w = s.do(t, http.MethodGet, "/api/extension/files/2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var file FileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))
	assert.Equal(t, FileResponse{Index: 2, Path: "popup.js", Kind: "JavaScript", Content: "console.log('dark')"}, file)

	w = s.do(t, http.MethodGet, "/api/extension/files/3", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/extension/files/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownload(t *testing.T) {
	s := newTestServer(&stubGenerator{result: darkMode()})

	w := s.do(t, http.MethodGet, "/download", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, s.generate(t, "dark").Code)

	for _, target := range []string{"/download", "/api/extension/download"} {
		w = s.do(t, http.MethodGet, target, "", "")
		require.Equal(t, http.StatusOK, w.Code, target)
		assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "Dark_Mode_Toggle_extension.zip")

		body := w.Body.Bytes()
		zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
		require.NoError(t, err)
		assert.Len(t, zr.File, 3)
	}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(&stubGenerator{result: darkMode()})

	w := s.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<textarea")
	assert.NotContains(t, w.Body.String(), "Dark Mode Toggle")

	require.Equal(t, http.StatusOK, s.generate(t, "dark").Code)

	w = s.do(t, http.MethodGet, "/?file=1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Dark Mode Toggle")
	assert.Contains(t, body, "popup.html · HTML")
	assert.Contains(t, body, `href="/download"`)
}

func TestSessionsAreIsolated(t *testing.T) {
	gen := &stubGenerator{result: darkMode()}
	h := NewAPIHandler(shell.NewRegistry(gen), time.Minute)
	router := NewRouter(h)

	a := &testServer{router: router}
	b := &testServer{router: router}

	require.Equal(t, http.StatusOK, a.generate(t, "dark").Code)

	w := b.do(t, http.MethodGet, "/api/extension", "", "")
	assert.Equal(t, types.StatusIdle, decodeState(t, w).Status)
	assert.NotEqual(t, a.cookie.Value, b.cookie.Value)
}

func TestGenerateExtension_ReportsOwnFailureUnderConcurrentStarts(t *testing.T) {
	s := newTestServer(&stubGenerator{err: errors.New("quota exceeded")})
	s.do(t, http.MethodGet, "/api/extension", "", "")
	sh := s.sessionShell(t)

	stop := make(chan struct{})
	spun := make(chan struct{})
	go func() {
		defer close(spun)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if done, ok := sh.Start(context.Background(), "other tab"); ok {
				<-done
			}
		}
	}()

	codes := map[int]int{}
	for i := 0; i < 300; i++ {
		codes[s.generate(t, "dark").Code]++
	}
	close(stop)
	<-spun

	for code := range codes {
		assert.Contains(t, []int{http.StatusBadGateway, http.StatusConflict}, code, "codes: %v", codes)
	}
	assert.Positive(t, codes[http.StatusBadGateway])
}

func TestReadRoutesDoNotCreateShells(t *testing.T) {
	s := newTestServer(&stubGenerator{result: darkMode()})

	for i := 0; i < 50; i++ {
		anon := &testServer{router: s.router, shells: s.shells}
		anon.do(t, http.MethodGet, "/", "", "")
		anon.do(t, http.MethodGet, "/api/extension", "", "")
		anon.do(t, http.MethodGet, "/api/extension/files/0", "", "")
		anon.do(t, http.MethodGet, "/download", "", "")
		form := url.Values{"prompt": {"  "}}.Encode()
		anon.do(t, http.MethodPost, "/generate", form, "application/x-www-form-urlencoded")
	}
	assert.Equal(t, 0, s.shells.Len())

	require.Equal(t, http.StatusOK, s.generate(t, "dark").Code)
	assert.Equal(t, 1, s.shells.Len())
}
