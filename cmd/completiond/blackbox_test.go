package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"completiond/pkg/types"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func projectRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/cmd/completiond/blackbox_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("black-box tests build the binary; skipped in -short mode")
	}
	binPath := filepath.Join(t.TempDir(), "completiond")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/completiond")
	cmd.Dir = projectRoot(t)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

// cleanEnv drops variables that would change the server's configuration.
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "COMPLETIOND_") || strings.HasPrefix(kv, "OPENAI_") || strings.HasPrefix(kv, "HF_TOKEN=") {
			continue
		}
		env = append(env, kv)
	}
	return env
}

type serverProc struct {
	base string
}

func startServer(t *testing.T, bin string, args ...string) *serverProc {
	t.Helper()
	port := findFreePort(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	args = append([]string{"--addr", fmt.Sprintf("127.0.0.1:%d", port), "--log-level", "warn"}, args...)
	cmd := exec.Command(bin, args...)
	cmd.Env = cleanEnv()
	cmd.Dir = t.TempDir()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	return &serverProc{base: base}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postJSON(t *testing.T, url string, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_HuggingFaceVariant(t *testing.T) {
	bin := buildBinary(t)
	modelsDir := t.TempDir()
	for _, n := range []string{"alpha.gguf", "beta.gguf"} {
		if err := os.WriteFile(filepath.Join(modelsDir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sp := startServer(t, bin, "--variant", "huggingface", "--models-dir", modelsDir)

	resp, body := get(t, sp.base+"/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/models %d %s", resp.StatusCode, string(body))
	}
	var models types.ModelsResponse
	if err := json.Unmarshal(body, &models); err != nil {
		t.Fatalf("/models json: %v body=%s", err, string(body))
	}
	if len(models.Models) != 4 || models.Default != "yiyanghkust/finbert-tone" {
		t.Fatalf("unexpected /models: %+v", models)
	}

	resp, _ = get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz %d", resp.StatusCode)
	}

	resp, body = postJSON(t, sp.base+"/completions", `{"model":"missing.gguf","prompt":"hi"}`)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != `{"error":"Could not find model missing.gguf."}` {
		t.Fatalf("unknown model: %d %s", resp.StatusCode, string(body))
	}

	// built without the llama tag
	resp, body = postJSON(t, sp.base+"/completions", `{"model":"alpha.gguf","prompt":"hi"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("gguf without llama support: %d %s", resp.StatusCode, string(body))
	}

	resp, body = postJSON(t, sp.base+"/completions", `{"model":"alpha.gguf","prompt":" "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank prompt: %d %s", resp.StatusCode, string(body))
	}
}

func TestBlackbox_MultiModelVariant(t *testing.T) {
	bin := buildBinary(t)
	sp := startServer(t, bin, "--variant", "multimodel")

	resp, body := postJSON(t, sp.base+"/completions", `{"prompt":"hi"}`)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != `{"error":"Could not find model ."}` {
		t.Fatalf("no default model: %d %s", resp.StatusCode, string(body))
	}

	resp, body = postJSON(t, sp.base+"/completions", `{"model":"embedding","prompt":"def add(a, b): return a + b"}`)
	if resp.StatusCode != http.StatusServiceUnavailable || !bytes.Contains(body, []byte("OPENAI_API_KEY")) {
		t.Fatalf("missing key: %d %s", resp.StatusCode, string(body))
	}
}
