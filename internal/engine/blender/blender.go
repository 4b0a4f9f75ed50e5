// Package blender drives a headless Blender process per conversion.
// The embedded python bridge resets scene state, imports, exports and
// reports a machine-readable result line that gets classified into the
// engine failure taxonomy.
package blender

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/engine"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
)

//go:embed bridge.py
var bridgeScript []byte

const resultMarker = "MODELHUB_RESULT"

type Adapter struct {
	bin string
	log *zap.Logger
}

func New(bin string, log *zap.Logger) *Adapter {
	return &Adapter{bin: bin, log: log}
}

// Convert runs one blender invocation. The ctx deliberately does not
// kill the process on cancellation; the supervisor abandons rather than
// terminates (killing mid-export risks a corrupt artifact on disk).
func (a *Adapter) Convert(_ context.Context, inputPath, outputPath string, source, target entities.Format) error {
	script, err := a.writeBridge(filepath.Dir(inputPath))
	if err != nil {
		return engine.NewError(engine.FailInternal, err.Error())
	}

	cmd := exec.Command(a.bin,
		"--background",
		"--factory-startup",
		"--python", script,
		"--",
		inputPath, outputPath, source.String(), target.String(),
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()

	if err := classifyResult(out.String()); err != nil {
		a.log.Warn("engine reported failure",
			zap.String("source", source.String()),
			zap.String("target", target.String()),
			zap.Error(err))
		return err
	}
	if runErr != nil {
		// The process died without reporting a result: an engine crash.
		a.log.Error("engine process crashed",
			zap.String("source", source.String()),
			zap.String("target", target.String()),
			zap.Error(runErr))
		return engine.NewError(engine.FailInternal, "engine process exited: "+runErr.Error())
	}
	if _, err := os.Stat(outputPath); err != nil {
		return engine.NewError(engine.FailInternal, "converted file not found")
	}
	return nil
}

func (a *Adapter) writeBridge(dir string) (string, error) {
	path := filepath.Join(dir, "bridge.py")
	if err := os.WriteFile(path, bridgeScript, 0o644); err != nil {
		return "", fmt.Errorf("write bridge script: %w", err)
	}
	return path, nil
}

// classifyResult scans engine output for the bridge's result line and
// maps its code into the failure taxonomy. No result line means the
// caller decides based on the process exit.
func classifyResult(output string) error {
	var result string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, resultMarker) {
			result = line
		}
	}
	if result == "" {
		return nil
	}

	fields := strings.SplitN(result, " ", 4)
	if len(fields) < 2 || fields[1] == "OK" {
		return nil
	}
	// MODELHUB_RESULT ERR <CODE> <message>
	code, msg := "", ""
	if len(fields) > 2 {
		code = fields[2]
	}
	if len(fields) > 3 {
		msg = fields[3]
	}

	switch code {
	case "UNSUPPORTED_FORMAT":
		return engine.NewError(engine.FailUnsupportedFormat, msg)
	case "CORRUPT_INPUT":
		return engine.NewError(engine.FailCorruptInput, msg)
	case "MISSING_ANIMATION":
		return engine.NewError(engine.FailMissingAnimation, msg)
	case "ADDON_MISSING":
		return engine.NewError(engine.FailAddonMissing, msg)
	default:
		return engine.NewError(engine.FailInternal, msg)
	}
}
