// Package docker re-runs the benchmark suite inside a resource-limited
// container so measurements are not skewed by the host's other load.
package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
)

// WorkDirTarget is where the host working directory is mounted.
const WorkDirTarget = "/work"

// ExitTimeout is the exit code reported when the container is killed after
// its deadline.
const ExitTimeout = 124

type RunOpts struct {
	Image       string
	Command     []string
	WorkDir     string
	Env         map[string]string
	Timeout     time.Duration
	CPULimit    float64
	MemoryLimit int64
	UserID      string
	// Output receives the container's console output. Defaults to stdout.
	Output io.Writer
}

type RunResult struct {
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// HostConfig returns the container host settings for opts.
func HostConfig(opts *RunOpts) *container.HostConfig {
	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: opts.WorkDir,
			Target: WorkDirTarget,
		}},
		Init: &initTrue,
	}
	if opts.CPULimit > 0 {
		hostCfg.NanoCPUs = int64(opts.CPULimit * 1e9)
	}
	if opts.MemoryLimit > 0 {
		hostCfg.Memory = opts.MemoryLimit
		// no swap, so RAM figures reflect the limit
		hostCfg.MemorySwap = opts.MemoryLimit
	}
	return hostCfg
}

// ContainerConfig returns the container settings for opts. A TTY is
// attached so logs come back as plain text.
func ContainerConfig(opts *RunOpts) *container.Config {
	env := make([]string, 0, len(opts.Env))
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	cfg := &container.Config{
		Image:      opts.Image,
		Cmd:        opts.Command,
		Env:        env,
		WorkingDir: WorkDirTarget,
		Tty:        true,
		Labels:     map[string]string{"abebench": "true"},
	}
	if opts.UserID != "" {
		cfg.User = opts.UserID
	}
	return cfg
}

func RunContainer(ctx context.Context, opts *RunOpts) (*RunResult, error) {
	if opts.Image == "" {
		return nil, fmt.Errorf("no container image configured")
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     ContainerConfig(opts),
		HostConfig: HostConfig(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	start := time.Now()
	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	waitResult := cli.ContainerWait(timeoutCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				copyLogs(cli, containerID, out)
				return &RunResult{
					ExitCode: ExitTimeout,
					TimedOut: true,
					Duration: time.Since(start),
				}, nil
			}
		case status := <-waitResult.Result:
			copyLogs(cli, containerID, out)
			return &RunResult{
				ExitCode: int(status.StatusCode),
				Duration: time.Since(start),
			}, nil
		}
	}
}

func copyLogs(cli *client.Client, containerID string, w io.Writer) {
	logReader, err := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil || logReader == nil {
		return
	}
	defer logReader.Close()
	io.Copy(w, logReader)
}
