//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// scenario holds state shared across step definitions within a scenario.
type scenario struct {
	dir          string
	h            *harness
	client       *http.Client
	response     *http.Response
	responseBody []byte
}

func (s *scenario) start(_ context.Context, _ *godog.Scenario) (context.Context, error) {
	dir, err := os.MkdirTemp("", "quotesync-bdd-*")
	if err != nil {
		return nil, err
	}

	h, err := startHarness(dir, nil)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	s.dir, s.h = dir, h
	s.client = &http.Client{Timeout: 10 * time.Second}

	return context.Background(), nil
}

func (s *scenario) finish(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
	if s.h != nil {
		s.h.stop()
	}

	_ = os.RemoveAll(s.dir)
	s.response, s.responseBody = nil, nil

	return ctx, err
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(ctx *godog.ScenarioContext) {
	s := &scenario{}

	ctx.Before(s.start)
	ctx.After(s.finish)

	ctx.Step(`^the store contains:$`, s.theStoreContains)
	ctx.Step(`^the remote source returns titles:$`, s.theRemoteSourceReturns)
	ctx.Step(`^the remote source is failing with status (\d+)$`, s.theRemoteSourceIsFailing)
	ctx.Step(`^I request GET "([^"]*)"$`, s.iRequestGET)
	ctx.Step(`^I POST "([^"]*)"$`, s.iPOSTEmpty)
	ctx.Step(`^I POST "([^"]*)" with body:$`, s.iPOSTWithBody)
	ctx.Step(`^I PUT "([^"]*)" with body:$`, s.iPUTWithBody)
	ctx.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)
	ctx.Step(`^the store should contain (\d+) quotes?$`, s.theStoreShouldContain)
	ctx.Step(`^the quote "([^"]*)" should have category "([^"]*)"$`, s.theQuoteShouldHaveCategory)
	ctx.Step(`^the last sync outcome should be "([^"]*)"$`, s.theLastSyncOutcomeShouldBe)
}

func (s *scenario) theStoreContains(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		if _, err := s.h.app.Service.AddQuote(context.Background(), row.Cells[0].Value, row.Cells[1].Value); err != nil {
			return err
		}
	}

	return nil
}

func (s *scenario) theRemoteSourceReturns(table *godog.Table) error {
	titles := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows[1:] {
		titles = append(titles, row.Cells[0].Value)
	}

	s.h.remote.setTitles(titles...)

	return nil
}

func (s *scenario) theRemoteSourceIsFailing(status int) error {
	s.h.remote.setStatus(status)
	return nil
}

func (s *scenario) iRequestGET(path string) error {
	return s.do(http.MethodGet, path, "")
}

func (s *scenario) iPOSTEmpty(path string) error {
	return s.do(http.MethodPost, path, "")
}

func (s *scenario) iPOSTWithBody(path string, body *godog.DocString) error {
	return s.do(http.MethodPost, path, body.Content)
}

func (s *scenario) iPUTWithBody(path string, body *godog.DocString) error {
	return s.do(http.MethodPut, path, body.Content)
}

func (s *scenario) do(method, path, body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.h.api.URL+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	s.response = resp

	s.responseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

func (s *scenario) theResponseStatusShouldBe(expected int) error {
	if s.response == nil {
		return errors.New("no response received")
	}

	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expected, s.response.StatusCode, s.responseBody)
	}

	return nil
}

func (s *scenario) theResponseShouldContain(text string) error {
	if !strings.Contains(string(s.responseBody), text) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, s.responseBody)
	}

	return nil
}

func (s *scenario) theStoreShouldContain(n int) error {
	if got := len(s.h.app.Service.ListQuotes("")); got != n {
		return fmt.Errorf("expected %d quotes, got %d", n, got)
	}

	return nil
}

func (s *scenario) theQuoteShouldHaveCategory(text, category string) error {
	q, err := s.h.app.Service.FindQuote(text)
	if err != nil {
		return err
	}

	if q.Category != category {
		return fmt.Errorf("quote %q has category %q, want %q", text, q.Category, category)
	}

	return nil
}

func (s *scenario) theLastSyncOutcomeShouldBe(outcome string) error {
	state := s.h.app.Service.GetSyncState()

	if string(state.LastOutcome) != outcome {
		raw, _ := json.Marshal(state)
		return fmt.Errorf("expected outcome %q, state %s", outcome, raw)
	}

	if state.Status == domain.SyncSyncing {
		return errors.New("sync still in flight")
	}

	return nil
}

// TestFeatures runs the GoDog BDD test suite.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
