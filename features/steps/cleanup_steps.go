//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"frame-archiver/cmd"
	"frame-archiver/domain/extraction"

	"github.com/cucumber/godog"
)

// cleanContext holds test state for clean scenarios
type cleanContext struct {
	outputDir   string
	partialPath string
	output      *bytes.Buffer
	err         error
}

var SharedCleanContext *cleanContext

func InitializeCleanScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "clean-test-*")
		if err != nil {
			return c, err
		}
		SharedCleanContext = &cleanContext{outputDir: dir, output: &bytes.Buffer{}}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedCleanContext != nil {
			os.RemoveAll(SharedCleanContext.outputDir)
		}
		return c, nil
	})

	ctx.Step(`^an empty output directory$`, func() error { return nil })
	ctx.Step(`^an output directory with a leftover workspace of (\d+) frames$`, func(n int) error {
		return SharedCleanContext.aLeftoverWorkspace(n)
	})
	ctx.Step(`^a partial archive "([^"]*)"$`, func(name string) error {
		return SharedCleanContext.aPartialArchive(name)
	})
	ctx.Step(`^I run the clean command$`, func() error {
		c := SharedCleanContext
		c.err = cmd.RunCleanWithDependencies(c.outputDir, nil, c.output)
		return c.err
	})
	ctx.Step(`^the workspace should be removed$`, func() error {
		return SharedCleanContext.shouldNotExist(filepath.Join(SharedCleanContext.outputDir, extraction.WorkspaceDirName))
	})
	ctx.Step(`^the partial archive should be removed$`, func() error {
		return SharedCleanContext.shouldNotExist(SharedCleanContext.partialPath)
	})
	ctx.Step(`^the clean output should contain "([^"]*)"$`, func(text string) error {
		if out := SharedCleanContext.output.String(); !strings.Contains(out, text) {
			return fmt.Errorf("expected output to contain %q, got:\n%s", text, out)
		}
		return nil
	})
}

func (c *cleanContext) aLeftoverWorkspace(frames int) error {
	ws := filepath.Join(c.outputDir, extraction.WorkspaceDirName)
	if err := os.MkdirAll(ws, 0755); err != nil {
		return err
	}
	for i := 1; i <= frames; i++ {
		name := filepath.Join(ws, fmt.Sprintf("frame_%06d.png", i))
		if err := os.WriteFile(name, make([]byte, 1024), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (c *cleanContext) aPartialArchive(name string) error {
	c.partialPath = filepath.Join(c.outputDir, name)
	return os.WriteFile(c.partialPath, []byte("PK\x03\x04"), 0644)
}

func (c *cleanContext) shouldNotExist(path string) error {
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("expected %s to be removed", path)
	}
	return nil
}
