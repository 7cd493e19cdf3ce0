package api

import (
	"bytes"
	"context"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ext_builder_server/internal/shell"
	"ext_builder_server/internal/types"
	"ext_builder_server/internal/viewer"

	"github.com/gin-gonic/gin"
)

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	shells            *shell.Registry
	generationTimeout time.Duration
}

// NewAPIHandler initializes a new API handler with its dependencies.
func NewAPIHandler(shells *shell.Registry, generationTimeout time.Duration) *APIHandler {
	return &APIHandler{
		shells:            shells,
		generationTimeout: generationTimeout,
	}
}

// --- Structs for API Requests/Responses ---

type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type FileResponse struct {
	Index   int    `json:"index"`
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// pageData feeds templates/index.html.
type pageData struct {
	State             shell.State
	Generating        bool
	Files             []types.ExtensionFile
	ActiveIndex       int
	Active            types.ExtensionFile
	ActiveKind        string
	CopiedDelayMillis int64
}

// lookupShell returns the session's shell without creating one.
func (h *APIHandler) lookupShell(c *gin.Context) (*shell.Shell, bool) {
	return h.shells.Lookup(sessionID(c))
}

// sessionState is the session's state, or the initial state when the
// session has never generated.
func (h *APIHandler) sessionState(c *gin.Context) shell.State {
	if sh, ok := h.lookupShell(c); ok {
		return sh.Snapshot()
	}
	return shell.InitialState()
}

// generationContext detaches the generation from the HTTP request: a client
// going away does not abort an in-flight generation.
func (h *APIHandler) generationContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.generationTimeout)
}

// --- Page Handlers ---

// GET /
func (h *APIHandler) Index(c *gin.Context) {
	st := h.sessionState(c)
	data := pageData{
		State:             st,
		Generating:        st.Status == types.StatusGenerating,
		CopiedDelayMillis: viewer.DefaultCopiedDelay.Milliseconds(),
	}

	if st.Result != nil {
		v, err := viewer.New(st.Result.Files, nil)
		if err != nil {
			log.Printf("WARN: result without files in session %s: %v", sessionID(c), err)
		} else {
			if idx, convErr := strconv.Atoi(c.Query("file")); convErr == nil {
				_ = v.SelectFile(idx) // out of range keeps file 0
			}
			data.Files = v.Files()
			data.ActiveIndex = v.ActiveIndex()
			data.Active = v.Active()
			data.ActiveKind = v.ActiveKind()
		}
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// POST /generate
func (h *APIHandler) SubmitForm(c *gin.Context) {
	prompt := c.PostForm("prompt")
	if isBlank(prompt) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	sh := h.shells.Get(sessionID(c))

	ctx, cancel := h.generationContext(c)
	done, started := sh.Start(ctx, prompt)
	if !started {
		cancel()
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	go func() {
		<-done
		cancel()
	}()

	log.Printf("Started generation for session %s", sessionID(c))
	c.Redirect(http.StatusSeeOther, "/")
}

// GET /download and GET /api/extension/download
func (h *APIHandler) Download(c *gin.Context) {
	sh, found := h.lookupShell(c)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No generated extension to download"})
		return
	}
	var buf bytes.Buffer
	filename, ok, err := sh.ExportAsZip(&buf)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No generated extension to download"})
		return
	}
	if err != nil {
		log.Printf("Error exporting zip for session %s: %v", sessionID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build zip archive"})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// --- JSON API Handlers ---

// POST /api/extension/generate
func (h *APIHandler) GenerateExtension(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if isBlank(req.Prompt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt must not be blank"})
		return
	}

	sh := h.shells.Get(sessionID(c))
	ctx, cancel := h.generationContext(c)
	defer cancel()

	// st is the outcome of this request's generation, even if another
	// request on the same session has started a new one since.
	st, ok := sh.Generate(ctx, req.Prompt)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "A generation is already in progress"})
		return
	}
	if st.Status != types.StatusSuccess || st.Result == nil {
		c.JSON(http.StatusBadGateway, st)
		return
	}
	log.Printf("Extension generation successful for session %s: %d files", sessionID(c), len(st.Result.Files))
	c.JSON(http.StatusOK, st)
}

// GET /api/extension
func (h *APIHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionState(c))
}

// GET /api/extension/files/:index
func (h *APIHandler) GetFile(c *gin.Context) {
	st := h.sessionState(c)
	if st.Result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No generated extension"})
		return
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File index must be an integer"})
		return
	}

	v, err := viewer.New(st.Result.Files, nil)
	if err == nil {
		err = v.SelectFile(idx)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	active := v.Active()
	c.JSON(http.StatusOK, FileResponse{
		Index:   v.ActiveIndex(),
		Path:    active.Path,
		Kind:    v.ActiveKind(),
		Content: active.Content,
	})
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
