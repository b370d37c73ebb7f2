//go:build integration

package steps

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"frame-archiver/cmd"
	"frame-archiver/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	loadErr    error
	commandErr error
}

// SharedConfigContext is reset before each scenario via Before hook
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		SharedConfigContext = &configContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config", "config.yaml"),
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedConfigContext.tempDir != "" {
			os.RemoveAll(SharedConfigContext.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^no configuration file exists$`, func() error { return nil })
	ctx.Step(`^a configuration file with:$`, func(doc *godog.DocString) error {
		return SharedConfigContext.aConfigurationFileWith(doc)
	})
	ctx.Step(`^I load the configuration$`, func() error {
		return SharedConfigContext.iLoadTheConfiguration()
	})
	ctx.Step(`^I set config "([^"]*)" to "([^"]*)"$`, func(key, value string) error {
		return SharedConfigContext.iSetConfig(key, value)
	})
	ctx.Step(`^I try to set config "([^"]*)" to "([^"]*)"$`, func(key, value string) error {
		SharedConfigContext.commandErr = SharedConfigContext.setConfig(key, value)
		return nil
	})
	ctx.Step(`^the config value "([^"]*)" should be "([^"]*)"$`, func(key, expected string) error {
		return SharedConfigContext.theConfigValueShouldBe(key, expected)
	})
	ctx.Step(`^the config command should fail$`, func() error {
		if SharedConfigContext.commandErr == nil {
			return fmt.Errorf("expected config command to fail")
		}
		return nil
	})
}

func (c *configContext) aConfigurationFileWith(doc *godog.DocString) error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(c.configPath, []byte(doc.Content), 0644)
}

func (c *configContext) iLoadTheConfiguration() error {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return fmt.Errorf("unexpected error loading config: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *configContext) setConfig(key, value string) error {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return err
	}
	return cmd.RunConfigSetWithDependencies(cfg, c.configPath, key, value, io.Discard)
}

func (c *configContext) iSetConfig(key, value string) error {
	if err := c.setConfig(key, value); err != nil {
		return fmt.Errorf("config set failed: %w", err)
	}
	return nil
}

func (c *configContext) theConfigValueShouldBe(key, expected string) error {
	if c.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	got, err := config.NewConfigManager(c.cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s %q, got %q", key, expected, got)
	}
	return nil
}
