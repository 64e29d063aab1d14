package exec

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dghoshal-lbl/madats/cmn/errs"
	"github.com/dghoshal-lbl/madats/cmn/nlog"
)

// runShell runs commandLine in its own process group so a watchdog timeout
// can kill the whole subtree (a mover's child processes, a compute task's
// forked workers) rather than just the direct child - golang.org/x/sys/unix
// gives the signed process-group kill syscall without shelling out to
// "pkill".
func runShell(ctx context.Context, commandLine string, timeout time.Duration) (string, error) {
	cmd := exec.CommandContext(ctx, "bash", "-c", commandLine)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return "", errs.Wrap(errs.Subprocess, err, "starting %s", commandLine)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		timeoutCh = timer.C
		defer timer.Stop()
	}

	select {
	case err := <-done:
		if err != nil {
			return out.String(), errs.Wrap(errs.Subprocess, err, "running %s", commandLine)
		}
		return out.String(), nil
	case <-timeoutCh:
		killGroup(cmd.Process.Pid)
		<-done
		return out.String(), errs.New(errs.Subprocess, "%s exceeded timeout %s", commandLine, timeout)
	case <-ctx.Done():
		killGroup(cmd.Process.Pid)
		<-done
		return out.String(), errs.Wrap(errs.Subprocess, ctx.Err(), "cancelled %s", commandLine)
	}
}

func killGroup(pid int) {
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
		nlog.Warningf("failed to kill process group %d: %v", pid, err)
	}
}
