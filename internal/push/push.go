// Package push drives one invocation of the certificate push agent.
//
// Each run is independently restartable: detect the flag marker, translate
// the pointer, read the renewed material, open a NAS session, resolve the
// target record, upload, and only then clear the marker. Any failure after
// detection leaves the marker untouched so the next scheduled run retries;
// there is no in-process retry and no state beyond the marker and the
// status record.
package push

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dockhand"
	"dockhand/config"
	"dockhand/internal/marker"
	"dockhand/internal/pathmap"
	"dockhand/internal/status"
	"dockhand/internal/syno"
)

// Lineage file names as produced by the renewal tool.
const (
	certFile  = "fullchain.pem"
	keyFile   = "privkey.pem"
	chainFile = "chain.pem"
)

// Manager is the slice of the NAS management API the agent needs.
// *syno.Client satisfies it.
type Manager interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	FindCertificate(ctx context.Context, description string) (syno.Certificate, error)
	ImportCertificate(ctx context.Context, id string, cert, key, chain []byte) error
}

// Agent runs the push pipeline for one NAS target.
type Agent struct {
	Config *config.Config
	Marker marker.Marker
	Rule   pathmap.Rule

	// Dial opens a management API session factory. Split out so tests can
	// substitute a fake NAS.
	Dial func(ctx context.Context) (Manager, error)

	// DryRun stops after target resolution: no upload, no flag removal,
	// no status record.
	DryRun bool
}

// Run executes one agent invocation. Absence of the flag marker is a clean
// no-op. Otherwise the run-status record is written whatever the outcome,
// and the returned error decides the exit code.
func (a *Agent) Run(ctx context.Context) error {
	pointer, present, err := a.Marker.Peek()
	if err == nil && !present {
		slog.Debug("No flag marker found, nothing to do.", "path", a.Marker.Path())
		return nil
	}

	var st dockhand.RunStatus
	if err != nil {
		st = dockhand.Now(false, err.Error())
	} else {
		st, err = a.push(ctx, pointer)
	}

	if !a.DryRun {
		if werr := status.Write(a.Config.StatusPath(), st); werr != nil {
			slog.Warn("Failed to write run-status record.", "path", a.Config.StatusPath(), "err", werr)
		}
	}
	return err
}

// push performs the resolve → authenticate → match → upload → commit
// sequence for a detected marker.
func (a *Agent) push(ctx context.Context, pointer string) (dockhand.RunStatus, error) {
	slog.Info("Flag marker detected, starting certificate push.", "pointer", pointer)

	if pointer == "" {
		// An empty pointer can never become pushable; leaving it in place
		// would wedge every future run. Clear it and fail this one.
		if cerr := a.Marker.Clear(); cerr != nil {
			slog.Error("Failed to remove empty flag marker.", "err", cerr)
		}
		return fail(errors.New("flag marker was empty, removed it"))
	}

	hostDir, err := a.Rule.Translate(pointer)
	if err != nil {
		return fail(fmt.Errorf("translate lineage path: %w", err))
	}
	slog.Info("Resolved lineage on host.", "dir", hostDir)

	cert, key, chain, err := readLineage(hostDir)
	if err != nil {
		return fail(err)
	}

	mgr, err := a.Dial(ctx)
	if err != nil {
		return fail(fmt.Errorf("dial management api: %w", err))
	}
	if err := mgr.Login(ctx, a.Config.Username, a.Config.Password); err != nil {
		return fail(err)
	}
	defer func() {
		if err := mgr.Logout(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Logout failed.", "err", err)
		}
	}()

	record, err := mgr.FindCertificate(ctx, a.Config.CertDescription)
	if err != nil {
		return fail(err)
	}

	if a.DryRun {
		slog.Info("Dry run, would upload and clear the flag marker.",
			"id", record.ID, "desc", a.Config.CertDescription)
		return dockhand.Now(true, "dry run"), nil
	}

	if err := mgr.ImportCertificate(ctx, record.ID, cert, key, chain); err != nil {
		return fail(err)
	}

	// Commit point. A failed removal is loud but non-fatal: the next run
	// re-pushes an identical certificate, which is harmless.
	if err := a.Marker.Clear(); err != nil {
		slog.Error("Upload succeeded but the flag marker could not be removed; the next run will re-push.", "err", err)
	}

	slog.Info("Certificate push completed.")
	return dockhand.Now(true, "certificate push completed"), nil
}

func fail(err error) (dockhand.RunStatus, error) {
	slog.Error("Certificate push failed.", "err", err)
	return dockhand.Now(false, err.Error()), err
}

// readLineage loads the renewed material beneath dir. Certificate and key
// are mandatory; the chain is optional. Both mandatory files must look
// like PEM before anything is sent to the NAS.
func readLineage(dir string) (cert, key, chain []byte, err error) {
	cert, err = readPEM(filepath.Join(dir, certFile))
	if err != nil {
		return nil, nil, nil, err
	}
	key, err = readPEM(filepath.Join(dir, keyFile))
	if err != nil {
		return nil, nil, nil, err
	}

	chain, err = os.ReadFile(filepath.Join(dir, chainFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil, fmt.Errorf("read chain: %w", err)
		}
		chain = nil
		err = nil
	}
	return cert, key, chain, nil
}

func readPEM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read certificate material: %w", err)
	}
	if !bytes.Contains(data, []byte("-----BEGIN ")) {
		return nil, fmt.Errorf("%s does not look like PEM", path)
	}
	return data, nil
}
