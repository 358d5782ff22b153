// Command api-server is the HTTP gateway: it accepts document uploads,
// enqueues ingestion jobs for cmd/ingest-worker, and serves status,
// clause, negotiation, session, and grounded Q&A endpoints, grounded in
// sse-rag-service/main.go's gin wiring (gin.New() + Logger/Recovery, a
// manual CORS middleware, route groups, SSE frames written directly to
// the response writer).
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"clausecompass/internal/cache"
	"clausecompass/internal/config"
	"clausecompass/internal/embedding"
	"clausecompass/internal/events"
	"clausecompass/internal/ingest"
	"clausecompass/internal/llm"
	"clausecompass/internal/logging"
	"clausecompass/internal/memory"
	"clausecompass/internal/metrics"
	"clausecompass/internal/observability/tracing"
	"clausecompass/internal/qa"
	"clausecompass/internal/store"
	"clausecompass/internal/xerrors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// server holds every dependency the HTTP handlers close over.
type server struct {
	cfg       *config.Settings
	store     *store.Store
	rdb       *redis.Client
	publisher events.Publisher
	responder *qa.Responder
	metrics   *metrics.Registry
	logger    *zap.Logger
}

func main() {
	cfg := config.Load()

	logger, err := logging.New("api-server", cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	shutdownTracing, err := tracing.Init(ctx, "api-server")
	if err != nil {
		logger.Warn("tracing disabled: failed to init exporter", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.EmbeddingDim, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to parse redis url", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()

	publisher, err := events.NewRedisPublisher(cfg.RedisURL, cfg.AnalyticsTopic, logger, 0, 0)
	if err != nil {
		logger.Fatal("failed to build event publisher", zap.Error(err))
	}
	defer publisher.Close()

	llmClient := llm.NewOllamaClient(cfg.LLMEndpoint, cfg.LLMModel)
	embedder := llm.NewOllamaEmbedder(cfg.EmbeddingEndpoint, cfg.EmbeddingModel)

	clauseCache := cache.New(cfg.ClauseCacheTTL, 0)
	defer clauseCache.Close()

	convMemory := memory.New(st, llmClient, cfg.ConversationWindow)
	indexer := embedding.New(embedder, st, logger, embedding.DefaultBatchSize, cfg.StoreBatchChunkSize)

	responder := qa.New(st, clauseCache, convMemory, embedder, llmClient, indexer, publisher, logger,
		cfg.RetrievalTopK, cfg.RetrievalMinScore)

	reg := metrics.New(prometheus.DefaultRegisterer)
	responder.SetMetrics(reg)
	indexer.SetMetrics(reg)

	srv := &server{cfg: cfg, store: st, rdb: rdb, publisher: publisher, responder: responder, metrics: reg, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(srv.cors())

	r.POST("/ingest", srv.handleIngest)
	r.GET("/status/:id", srv.handleStatus)
	r.GET("/clauses/:id", srv.handleClauses)
	r.GET("/clauses/:id/:clauseId", srv.handleClause)
	r.GET("/negotiations", srv.handleNegotiations)
	r.POST("/ask", srv.handleAsk)
	r.POST("/ask-stream", srv.handleAskStream)
	r.POST("/sessions", srv.handleCreateSession)
	r.GET("/sessions/:id", srv.handleGetSession)
	r.POST("/sessions/:id/archive", srv.handleArchiveSession)
	r.DELETE("/sessions/:id", srv.handleDeleteSession)
	r.GET("/healthz", srv.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	logger.Info("api-server listening", zap.String("addr", addr))
	log.Fatal(http.ListenAndServe(addr, r))
}

// cors mirrors sse-rag-service/main.go's manual CORS middleware, scoped to
// config.Settings.AllowedOrigins rather than a blanket wildcard.
func (s *server) cors() gin.HandlerFunc {
	allowed := make(map[string]bool, len(s.cfg.AllowedOrigins))
	for _, o := range s.cfg.AllowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] || allowed["*"] {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// writeError maps a component-boundary error onto the HTTP status spec.md
// §7 assigns its xerrors.Kind.
func writeError(c *gin.Context, err error) {
	kind := xerrors.KindOf(err)
	c.JSON(kind.HTTPStatus(), gin.H{"error": err.Error()})
}

const maxUploadBytes = 50 << 20 // upper bound before per-file limits apply; see config.Settings.MaxFileSizeBytes

// handleIngest accepts a multipart upload, enqueues an ingest.Job for
// cmd/ingest-worker, and returns immediately. The Document row itself is
// created by the Orchestrator (store.CreateDocument has no ON CONFLICT
// handling), so the response here reports a synthetic processing status
// rather than reading one back from Postgres.
func (s *server) handleIngest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, xerrors.New(xerrors.InputValidation, "api.handleIngest", err))
		return
	}
	if fileHeader.Size > s.cfg.MaxFileSizeBytes() {
		writeError(c, xerrors.New(xerrors.InputTooLarge, "api.handleIngest", nil))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, xerrors.New(xerrors.Internal, "api.handleIngest", err))
		return
	}
	defer f.Close()

	data := make([]byte, fileHeader.Size)
	if _, err := f.Read(data); err != nil {
		writeError(c, xerrors.New(xerrors.Internal, "api.handleIngest", err))
		return
	}

	var sessionID *string
	if v := c.PostForm("session_id"); v != "" {
		sessionID = &v
	}

	documentID := uuid.NewString()
	job := ingest.Job{
		DocumentID: documentID,
		Filename:   fileHeader.Filename,
		MIME:       fileHeader.Header.Get("Content-Type"),
		SessionID:  sessionID,
		Data:       data,
		Enqueued:   time.Now(),
	}
	if err := ingest.Enqueue(c.Request.Context(), s.rdb, job); err != nil {
		writeError(c, xerrors.New(xerrors.DependencyFailure, "api.handleIngest", err))
		return
	}

	if err := s.publisher.Publish(c.Request.Context(), events.DocumentUploaded{
		DocumentID: documentID, Filename: fileHeader.Filename, ByteSize: fileHeader.Size,
	}); err != nil {
		s.logger.Warn("failed to publish document_uploaded event", zap.Error(err))
	}

	c.JSON(http.StatusAccepted, gin.H{
		"document_id": documentID,
		"status":      string(store.StatusProcessing),
		"filename":    fileHeader.Filename,
	})
}

func (s *server) handleStatus(c *gin.Context) {
	doc, err := s.store.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *server) handleClauses(c *gin.Context) {
	clauses, err := s.store.GetClausesByDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clauses": clauses})
}

func (s *server) handleClause(c *gin.Context) {
	clause, err := s.store.GetClause(c.Request.Context(), c.Param("id"), c.Param("clauseId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, clause)
}

func (s *server) handleNegotiations(c *gin.Context) {
	docID := c.Query("doc_id")
	if docID == "" {
		writeError(c, xerrors.New(xerrors.InputValidation, "api.handleNegotiations", nil))
		return
	}
	negotiations, err := s.store.ListNegotiations(c.Request.Context(), docID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"negotiations": negotiations})
}

// askBody is the wire shape of POST /ask and POST /ask-stream, binding
// directly onto qa.Request's fields.
type askBody struct {
	DocumentID            string  `json:"document_id" binding:"required"`
	Question              string  `json:"question" binding:"required"`
	SessionID             *string `json:"chat_session_id,omitempty"`
	UseConversationMemory bool    `json:"use_conversation_memory"`
	AutoDetectLanguage    bool    `json:"auto_detect_language"`
	LanguageOverride      string  `json:"language_override,omitempty"`
}

func (b askBody) toRequest() qa.Request {
	return qa.Request{
		DocumentID:            b.DocumentID,
		Question:              b.Question,
		SessionID:             b.SessionID,
		UseConversationMemory: b.UseConversationMemory,
		AutoDetectLanguage:    b.AutoDetectLanguage,
		LanguageOverride:      qa.Language(b.LanguageOverride),
	}
}

func (s *server) handleAsk(c *gin.Context) {
	var body askBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, xerrors.New(xerrors.InputValidation, "api.handleAsk", err))
		return
	}

	answer, err := s.responder.Ask(c.Request.Context(), body.toRequest())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// handleAskStream drives qa.Responder.AskStream over SSE, grounded in
// sse-rag-service/main.go's sendSSEEvent + explicit c.Writer.Flush() after
// every frame.
func (s *server) handleAskStream(c *gin.Context) {
	var body askBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, xerrors.New(xerrors.InputValidation, "api.handleAskStream", err))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	s.responder.AskStream(c.Request.Context(), body.toRequest(), func(evt qa.StreamEvent) {
		c.SSEvent(evt.Type, evt.Data)
		c.Writer.Flush()
	})
}

func (s *server) handleCreateSession(c *gin.Context) {
	var body struct {
		Title             string   `json:"title"`
		SelectedDocuments []string `json:"selected_documents"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, xerrors.New(xerrors.InputValidation, "api.handleCreateSession", err))
		return
	}

	sess := &store.ChatSession{
		ID: uuid.NewString(), Title: body.Title, SelectedDocuments: body.SelectedDocuments,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSession(c.Request.Context(), sess); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *server) handleGetSession(c *gin.Context) {
	sess, err := s.store.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *server) handleArchiveSession(c *gin.Context) {
	if err := s.store.ArchiveSession(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) handleDeleteSession(c *gin.Context) {
	if err := s.store.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
