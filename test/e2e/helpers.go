//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/tenantex/internal/api/handlers"
	"github.com/cloo-solutions/tenantex/internal/extract"
	"github.com/cloo-solutions/tenantex/internal/jobs"
	"github.com/cloo-solutions/tenantex/internal/notify"
	"github.com/cloo-solutions/tenantex/internal/repository"
	"github.com/cloo-solutions/tenantex/internal/server"
	"github.com/cloo-solutions/tenantex/internal/service"
	"github.com/cloo-solutions/tenantex/internal/storage"
	"github.com/cloo-solutions/tenantex/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	testAPIKey    = "ttx_e2e_key"
	embeddingDims = 1536
)

// wordEmbedder is a deterministic stand-in for the embedding provider. It
// hashes words into a fixed-size bag-of-words vector and normalizes it, so
// texts sharing vocabulary land close together under cosine distance.
type wordEmbedder struct{}

func (wordEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return wordVector(text), nil
}

func (wordEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = wordVector(text)
	}
	return vectors, nil
}

func wordVector(text string) []float32 {
	vec := make([]float32, embeddingDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%embeddingDims]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		vec[0] = 1
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and an
// in-process server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-documents",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, s3Client, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// startServer assembles the full service stack around the test containers
// and serves it on the given port.
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, func()) {
	tenantRegistry := repository.NewTenantRegistry(pool)
	passageRepo := repository.NewPassageRepository(pool)

	vectorStore := service.NewVectorStoreService(wordEmbedder{}, passageRepo, tenantRegistry)
	ingestionSvc := service.NewIngestionService(vectorStore, s3Client, extract.NewExtractor(), notify.NewStatusClient("", ""))
	retrievalSvc := service.NewRetrievalService(vectorStore)

	queue := jobs.NewQueue(ingestionSvc, 2, 16)
	queueCtx, cancelQueue := context.WithCancel(context.Background())
	queue.Start(queueCtx)

	router := server.NewRouter(server.RouterConfig{
		APIKey:           testAPIKey,
		TenantHandler:    handlers.NewTenantHandler(retrievalSvc, queue, tenantRegistry, passageRepo),
		KnowledgeHandler: handlers.NewKnowledgeHandler(retrievalSvc),
		UtilsHandler:     handlers.NewUtilsHandler(passageRepo),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Errorf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	waitForServer(t, serverURL)

	closer := func() {
		queue.Stop()
		cancelQueue()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}
	return serverURL, closer
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func waitForServer(t *testing.T, serverURL string) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(serverURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("server did not become ready")
}

// HTTPResult is a raw response. Retrieval endpoints answer without the
// standard data envelope, so helpers hand back unparsed bytes.
type HTTPResult struct {
	Status int
	Body   []byte
}

func (e *E2ETestEnv) Do(method, path string, body interface{}, authorized bool) *HTTPResult {
	e.T.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		e.T.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response body: %v", err)
	}
	return &HTTPResult{Status: resp.StatusCode, Body: data}
}

func (e *E2ETestEnv) Post(path string, body interface{}) *HTTPResult {
	return e.Do(http.MethodPost, path, body, true)
}

func (e *E2ETestEnv) Get(path string) *HTTPResult {
	return e.Do(http.MethodGet, path, nil, true)
}

func (e *E2ETestEnv) Delete(path string) *HTTPResult {
	return e.Do(http.MethodDelete, path, nil, true)
}

// UnwrapData decodes the standard {"data": ...} envelope into out.
func (e *E2ETestEnv) UnwrapData(res *HTTPResult, out interface{}) {
	e.T.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		e.T.Fatalf("failed to parse envelope: %v (%s)", err, res.Body)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		e.T.Fatalf("failed to parse data: %v (%s)", err, envelope.Data)
	}
}

// EnqueueUpload stores the document in object storage, queues it for
// ingestion, and returns the job id.
func (e *E2ETestEnv) EnqueueUpload(tenantID, key string, content []byte) string {
	e.T.Helper()

	if err := e.S3Client.PutObject(e.Ctx, key, content, "text/plain"); err != nil {
		e.T.Fatalf("failed to seed object %s: %v", key, err)
	}

	res := e.Post("/tenant/upload-knowledge", map[string]string{
		"knowledge_id": tenantID,
		"key":          key,
	})
	if res.Status != http.StatusAccepted {
		e.T.Fatalf("upload-knowledge returned %d: %s", res.Status, res.Body)
	}

	var accepted struct {
		JobID string `json:"job_id"`
	}
	e.UnwrapData(res, &accepted)
	if accepted.JobID == "" {
		e.T.Fatal("upload-knowledge returned no job id")
	}
	return accepted.JobID
}

// WaitForJob polls the job endpoint until the job leaves the queue's active
// states, then returns its final status.
func (e *E2ETestEnv) WaitForJob(jobID string) string {
	e.T.Helper()

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		res := e.Get("/tenant/jobs/" + jobID)
		if res.Status != http.StatusOK {
			e.T.Fatalf("job status returned %d: %s", res.Status, res.Body)
		}

		var status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		e.UnwrapData(res, &status)
		if status.Status == "done" || status.Status == "failed" {
			if status.Error != "" {
				e.T.Logf("job %s finished with error: %s", jobID, status.Error)
			}
			return status.Status
		}
		time.Sleep(200 * time.Millisecond)
	}
	e.T.Fatalf("job %s did not finish in time", jobID)
	return ""
}
