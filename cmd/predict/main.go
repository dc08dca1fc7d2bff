// predict is a CLI harness around the style-weighted move predictor: it reads a JSON Request
// from a file or stdin, drives a UCI engine subprocess for analysis, and writes the predicted
// Response as JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jkern100/chess-scout/pkg/config"
	"github.com/jkern100/chess-scout/pkg/engineadapter"
	"github.com/jkern100/chess-scout/pkg/predict"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(0, 1, 0)

var (
	requestPath = flag.String("request", "", "Path to a JSON Request (default stdin)")
	pretty      = flag.Bool("pretty", false, "Pretty-print the JSON Response")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: predict [options]

predict reads a style-weighted move Request as JSON and prints the predicted Response.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	logw.Infof(ctx, "predict %v starting", version)

	cfg, err := config.Load()
	if err != nil {
		logw.Exitf(ctx, "Invalid configuration: %v", err)
	}

	req, err := readRequest(*requestPath)
	if err != nil {
		logw.Exitf(ctx, "Invalid request: %v", err)
	}

	adapter, err := engineadapter.New(ctx, cfg.EnginePath,
		engineadapter.WithThreads(uint(cfg.EngineThreads)),
		engineadapter.WithHashMB(uint(cfg.EngineHashMB)),
		engineadapter.WithMultiPV(uint(cfg.EngineMultiPV)),
		engineadapter.WithTimeout(cfg.Timeout()),
	)
	if err != nil {
		logw.Exitf(ctx, "Failed to start engine %v: %v", cfg.EnginePath, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := adapter.Close(closeCtx); err != nil {
			logw.Warningf(ctx, "Failed to close engine cleanly: %v", err)
		}
	}()

	p := predict.New(adapter, cfg.EngineDepth, cfg.RNGSeed)

	resp, err := p.Predict(ctx, req)
	if err != nil {
		logw.Exitf(ctx, "Prediction failed: %v", err)
	}

	if err := writeResponse(os.Stdout, resp, *pretty); err != nil {
		logw.Exitf(ctx, "Failed to write response: %v", err)
	}
}

func readRequest(path string) (predict.Request, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return predict.Request{}, err
		}
		defer f.Close()
		r = f
	}

	var req predict.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return predict.Request{}, fmt.Errorf("decoding request: %w", err)
	}
	return req, nil
}

func writeResponse(w io.Writer, resp *predict.Response, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}
