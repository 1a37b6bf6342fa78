// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Search() config.SearchConfig {
	args := m.Called()
	return args.Get(0).(config.SearchConfig)
}

func (m *MockConfig) Detail() config.DetailConfig {
	args := m.Called()
	return args.Get(0).(config.DetailConfig)
}

func (m *MockConfig) Target() config.TargetConfig {
	args := m.Called()
	return args.Get(0).(config.TargetConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserHeadless(b bool)    { m.Called(b) }
func (m *MockConfig) SetTargetURL(u string)        { m.Called(u) }
func (m *MockConfig) SetTargetEquity(name string)  { m.Called(name) }
func (m *MockConfig) SetPopularEquity(name string) { m.Called(name) }

// -- Page Mock --

// MockPage mocks browser.Page for tests that script exact bridge responses,
// including failures.
type MockPage struct {
	mock.Mock
}

var _ browser.Page = (*MockPage)(nil)

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockPage) Count(ctx context.Context, q browser.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *MockPage) Visible(ctx context.Context, q browser.Query, nth int) (bool, error) {
	args := m.Called(ctx, q, nth)
	return args.Bool(0), args.Error(1)
}

func (m *MockPage) Text(ctx context.Context, q browser.Query, nth int) (string, error) {
	args := m.Called(ctx, q, nth)
	return args.String(0), args.Error(1)
}

func (m *MockPage) Click(ctx context.Context, q browser.Query, nth int) error {
	return m.Called(ctx, q, nth).Error(0)
}

func (m *MockPage) Fill(ctx context.Context, q browser.Query, value string) error {
	return m.Called(ctx, q, value).Error(0)
}

func (m *MockPage) Press(ctx context.Context, q browser.Query, key string) error {
	return m.Called(ctx, q, key).Error(0)
}

func (m *MockPage) WaitFor(ctx context.Context, q browser.Query, state browser.State) error {
	return m.Called(ctx, q, state).Error(0)
}

func (m *MockPage) Frames(ctx context.Context) ([]browser.Scope, error) {
	args := m.Called(ctx)
	frames, _ := args.Get(0).([]browser.Scope)
	return frames, args.Error(1)
}

func (m *MockPage) Evaluate(ctx context.Context, script string, out interface{}) error {
	return m.Called(ctx, script, out).Error(0)
}

func (m *MockPage) ShadowRoot(ctx context.Context, hostCSS string) (browser.Root, error) {
	args := m.Called(ctx, hostCSS)
	root, _ := args.Get(0).(browser.Root)
	return root, args.Error(1)
}

func (m *MockPage) Sleep(ctx context.Context, d time.Duration) error {
	return m.Called(ctx, d).Error(0)
}

// -- Root Mock --

// MockRoot mocks browser.Root.
type MockRoot struct {
	mock.Mock
}

var _ browser.Root = (*MockRoot)(nil)

func (m *MockRoot) Ref() string { return m.Called().String(0) }

func (m *MockRoot) Count(ctx context.Context, css string) (int, error) {
	args := m.Called(ctx, css)
	return args.Int(0), args.Error(1)
}

func (m *MockRoot) Texts(ctx context.Context, css string, visibleOnly bool) ([]string, error) {
	args := m.Called(ctx, css, visibleOnly)
	texts, _ := args.Get(0).([]string)
	return texts, args.Error(1)
}

func (m *MockRoot) SetValue(ctx context.Context, css, value string) (bool, error) {
	args := m.Called(ctx, css, value)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoot) Click(ctx context.Context, css string) (bool, error) {
	args := m.Called(ctx, css)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoot) ClickIn(ctx context.Context, itemCSS, contains, actionCSS string) (bool, error) {
	args := m.Called(ctx, itemCSS, contains, actionCSS)
	return args.Bool(0), args.Error(1)
}
