//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/loretexai/internal/api/handlers"
	"github.com/cloo-solutions/loretexai/internal/repository"
	"github.com/cloo-solutions/loretexai/internal/server"
	"github.com/cloo-solutions/loretexai/internal/service"
	"github.com/cloo-solutions/loretexai/internal/storage"
	"github.com/cloo-solutions/loretexai/internal/testutil"
	"github.com/cloo-solutions/loretexai/internal/tokencount"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const (
	e2eBucket        = "loretex-e2e"
	e2eWorkspaceName = "E2E Test Workspace"
)

// E2ETestEnv holds the full test environment: containers, database pool, a
// running API server, and optionally built CLI binaries.
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	BinaryDir    string
	WorkspaceID  string
	APIKeyID     string
	AuthToken    string
	HTTPClient   *http.Client
}

// SetupE2EEnv starts Postgres and RustFS containers, runs migrations, and
// boots the API server in-process on a free port.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	rc := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          e2eBucket,
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, s3Client.EnsureBucket(ctx))

	serverURL, closer := startServer(t, pool, s3Client)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pc,
		RustFSC:      rc,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: closer,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup shuts down the server and tears down containers and temp files.
func (env *E2ETestEnv) Cleanup() {
	if env.ServerCloser != nil {
		env.ServerCloser()
	}
	if env.Pool != nil {
		env.Pool.Close()
	}
	if env.PostgresC != nil {
		_ = env.PostgresC.Terminate(env.Ctx)
	}
	if env.RustFSC != nil {
		_ = env.RustFSC.Terminate(env.Ctx)
	}
	if env.BinaryDir != "" {
		os.RemoveAll(env.BinaryDir)
	}
}

// Bootstrap provisions a workspace and an API key. Provisioning is an
// operator action with no HTTP route, so the harness goes through the same
// service the loretexd admin commands use.
func (env *E2ETestEnv) Bootstrap() {
	workspaceRepo := repository.NewWorkspaceRepository(env.Pool)
	apiKeyRepo := repository.NewAPIKeyRepository(env.Pool)
	authSvc := service.NewAuthService(workspaceRepo, apiKeyRepo, &service.DefaultUUIDGenerator{})

	ws, err := authSvc.CreateWorkspace(env.Ctx, e2eWorkspaceName)
	require.NoError(env.T, err)
	env.WorkspaceID = ws.ID

	token, err := authSvc.CreateAPIKey(env.Ctx, ws.ID, "e2e-key")
	require.NoError(env.T, err)
	env.AuthToken = token

	row := env.Pool.QueryRow(env.Ctx,
		"SELECT id FROM api_keys WHERE workspace_id = $1 ORDER BY created_at DESC LIMIT 1", ws.ID)
	require.NoError(env.T, row.Scan(&env.APIKeyID))
}

// BuildBinaries compiles the loretex and loretexd binaries into a temp dir.
func (env *E2ETestEnv) BuildBinaries() {
	dir, err := os.MkdirTemp("", "loretex-e2e-bin-*")
	require.NoError(env.T, err)
	env.BinaryDir = dir

	for _, name := range []string{"loretex", "loretexd"} {
		cmd := exec.Command("go", "build", "-o", filepath.Join(dir, name), "./cmd/"+name)
		cmd.Dir = "../.."
		output, err := cmd.CombinedOutput()
		require.NoError(env.T, err, "failed to build %s: %s", name, string(output))
	}
}

// RunLoretex runs the loretex CLI binary in the given directory with the
// environment pointed at the test server.
func (env *E2ETestEnv) RunLoretex(dir string, args ...string) (string, error) {
	return env.RunLoretexWithInput(dir, "", args...)
}

// RunLoretexWithInput runs the loretex CLI with the given stdin.
func (env *E2ETestEnv) RunLoretexWithInput(dir, input string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(env.BinaryDir, "loretex"), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"LORETEX_API_KEY="+env.AuthToken,
		"LORETEX_API_URL="+env.ServerURL,
	)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// APIErrorBody is the structured error payload the server returns.
type APIErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standard response envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *APIErrorBody   `json:"error,omitempty"`
}

// Get performs an authenticated GET request against the test server.
func (env *E2ETestEnv) Get(path, token string) (*APIResponse, error) {
	return env.doRequest("GET", path, nil, token)
}

// Post performs an authenticated POST request with a JSON body.
func (env *E2ETestEnv) Post(path string, body interface{}, token string) (*APIResponse, error) {
	return env.doRequest("POST", path, body, token)
}

// Patch performs an authenticated PATCH request with a JSON body.
func (env *E2ETestEnv) Patch(path string, body interface{}, token string) (*APIResponse, error) {
	return env.doRequest("PATCH", path, body, token)
}

// Delete performs an authenticated DELETE request.
func (env *E2ETestEnv) Delete(path, token string) (*APIResponse, error) {
	return env.doRequest("DELETE", path, nil, token)
}

func (env *E2ETestEnv) doRequest(method, path string, body interface{}, token string) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(env.Ctx, method, env.ServerURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode >= 400 {
		msg := string(respBody)
		if apiResp.Error != nil {
			msg = apiResp.Error.Message
		}
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg)
	}

	return &apiResp, nil
}

// UploadFile PUTs content to a presigned URL.
func (env *E2ETestEnv) UploadFile(uploadURL string, content []byte, contentType string) error {
	req, err := http.NewRequestWithContext(env.Ctx, "PUT", uploadURL, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(content))

	resp, err := env.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// DownloadFile GETs a presigned URL and returns the body.
func (env *E2ETestEnv) DownloadFile(downloadURL string) ([]byte, error) {
	resp, err := env.HTTPClient.Get(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// SHA256Sum returns the hex-encoded SHA-256 of data.
func SHA256Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// startServer wires repositories, services, and handlers the same way the
// serve command does and runs the router on a free port. The summary worker
// is not started: without an OpenAI key summaries stay pending, which is the
// production behavior the tests rely on.
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client) (string, func()) {
	entryRepo := repository.NewEntryRepository(pool)
	sourceRepo := repository.NewSourceRepository(pool)
	workspaceRepo := repository.NewWorkspaceRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	uuidGen := &service.DefaultUUIDGenerator{}
	chunkCfg := service.DefaultChunkConfig()

	authSvc := service.NewAuthService(workspaceRepo, apiKeyRepo, uuidGen)
	entrySvc := service.NewEntryServiceWithConfig(entryRepo, txRunner, uuidGen, chunkCfg)
	sourceSvc := service.NewSourceServiceWithConfig(
		sourceRepo, &s3StorageAdapter{client: s3Client}, txRunner, uuidGen, chunkCfg, 0)
	contextSvc := service.NewContextServiceWithConfig(
		entryRepo, tokencount.NewEstimatedCounter(), service.DefaultContextBuilderConfig())

	router := server.NewRouter(server.RouterConfig{
		AuthValidator:    authSvc,
		EntryHandler:     handlers.NewEntryHandler(entrySvc),
		SourceHandler:    handlers.NewSourceHandler(sourceSvc),
		ContextHandler:   handlers.NewContextHandler(contextSvc),
		AuthHandler:      handlers.NewAuthHandler(authSvc),
		WorkspaceHandler: handlers.NewWorkspaceHandler(authSvc, entrySvc),
	})

	port := getFreePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Errorf("server failed: %v", err)
		}
	}()

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/health")

	closer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}

	return serverURL, closer
}

func waitForServer(t *testing.T, healthURL string) {
	client := &http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not become healthy at %s", healthURL)
}

func getFreePort(t *testing.T) int {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

// s3StorageAdapter bridges the S3 client to the service storage interface.
type s3StorageAdapter struct {
	client *storage.S3Client
}

func (a *s3StorageAdapter) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	return a.client.GenerateUploadURL(ctx, key, contentType)
}

func (a *s3StorageAdapter) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	return a.client.GenerateDownloadURL(ctx, key)
}

func (a *s3StorageAdapter) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	return a.client.DownloadObject(ctx, key)
}

func (a *s3StorageAdapter) DeleteObject(ctx context.Context, key string) error {
	return a.client.DeleteObject(ctx, key)
}

func (a *s3StorageAdapter) HeadObject(ctx context.Context, key string) (*service.ObjectMetadata, error) {
	meta, err := a.client.HeadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &service.ObjectMetadata{
		ContentLength: meta.ContentLength,
		ContentType:   meta.ContentType,
		ETag:          meta.ETag,
	}, nil
}
