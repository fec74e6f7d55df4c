package docker_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/abebench/internal/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostConfigLimits(t *testing.T) {
	hc := docker.HostConfig(&docker.RunOpts{
		WorkDir:     "/home/bench",
		CPULimit:    1.5,
		MemoryLimit: 512 << 20,
	})
	require.Len(t, hc.Mounts, 1)
	assert.Equal(t, "/home/bench", hc.Mounts[0].Source)
	assert.Equal(t, docker.WorkDirTarget, hc.Mounts[0].Target)
	assert.Equal(t, int64(1_500_000_000), hc.NanoCPUs)
	assert.Equal(t, int64(512<<20), hc.Memory)
	assert.Equal(t, int64(512<<20), hc.MemorySwap)
}

func TestHostConfigUnlimited(t *testing.T) {
	hc := docker.HostConfig(&docker.RunOpts{WorkDir: "/w"})
	assert.Zero(t, hc.NanoCPUs)
	assert.Zero(t, hc.Memory)
}

func TestContainerConfig(t *testing.T) {
	cfg := docker.ContainerConfig(&docker.RunOpts{
		Image:   "abebench:latest",
		Command: []string{"abebench", "run"},
		Env:     map[string]string{"B": "2", "A": "1"},
		UserID:  "1000:1000",
	})
	assert.Equal(t, "abebench:latest", cfg.Image)
	assert.Equal(t, []string{"abebench", "run"}, []string(cfg.Cmd))
	assert.Equal(t, []string{"A=1", "B=2"}, cfg.Env)
	assert.Equal(t, docker.WorkDirTarget, cfg.WorkingDir)
	assert.Equal(t, "1000:1000", cfg.User)
	assert.True(t, cfg.Tty)
}

func TestRunContainerRequiresImage(t *testing.T) {
	_, err := docker.RunContainer(context.Background(), &docker.RunOpts{WorkDir: t.TempDir()})
	assert.ErrorContains(t, err, "no container image")
}

func TestRunContainer(t *testing.T) {
	if os.Getenv("ABEBENCH_DOCKER_TESTS") == "" {
		t.Skip("set ABEBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	workDir := t.TempDir()
	var out bytes.Buffer
	result, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:    "alpine:latest",
		Command:  []string{"sh", "-c", "echo hello > /work/output.txt && echo done"},
		WorkDir:  workDir,
		Timeout:  30 * time.Second,
		CPULimit: 1,
		Output:   &out,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.TimedOut)
	assert.Contains(t, out.String(), "done")

	content, err := os.ReadFile(filepath.Join(workDir, "output.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestRunContainerTimeout(t *testing.T) {
	if os.Getenv("ABEBENCH_DOCKER_TESTS") == "" {
		t.Skip("set ABEBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	result, err := docker.RunContainer(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sleep", "300"},
		WorkDir: t.TempDir(),
		Timeout: 2 * time.Second,
		Output:  &bytes.Buffer{},
	})
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Equal(t, docker.ExitTimeout, result.ExitCode)
}

func TestRunContainerCrash(t *testing.T) {
	if os.Getenv("ABEBENCH_DOCKER_TESTS") == "" {
		t.Skip("set ABEBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	result, err := docker.RunContainer(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "exit 1"},
		WorkDir: t.TempDir(),
		Timeout: 10 * time.Second,
		Output:  &bytes.Buffer{},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
}
