package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Yates-Labs/zero2story/internal/conversation"
	"github.com/Yates-Labs/zero2story/internal/prompts"
)

func testDefaults(mode Mode) Params {
	p := Params{
		Model:       "chat-model",
		Temperature: 1.0,
		TopK:        40,
		TopP:        0.95,
		SafetySettings: []SafetySetting{
			{Category: "toxicity", Threshold: BlockLowAndAbove},
			{Category: "violence", Threshold: BlockMediumAndAbove},
		},
	}
	if mode == ModeText {
		p.Model = "text-model"
		p.MaxOutputTokens = 1024
	}
	return p
}

func TestWithoutContentFilter_DoesNotMutate(t *testing.T) {
	original := testDefaults(ModeChat)
	snapshot := original.Clone()

	widened := original.WithoutContentFilter()

	for _, s := range widened.SafetySettings {
		if s.Threshold != MostPermissive {
			t.Errorf("category %s: expected %v, got %v", s.Category, MostPermissive, s.Threshold)
		}
	}
	if !reflect.DeepEqual(original, snapshot) {
		t.Errorf("original params were mutated: %+v", original)
	}
}

func TestEffective(t *testing.T) {
	override := &Params{
		Model:          "custom",
		SafetySettings: []SafetySetting{{Category: "toxicity", Threshold: BlockOnlyHigh}},
	}

	tests := []struct {
		name          string
		req           Request
		wantModel     string
		wantContext   string
		wantThreshold Threshold
	}{
		{
			name:          "chat defaults",
			req:           Request{Mode: ModeChat},
			wantModel:     "chat-model",
			wantThreshold: BlockLowAndAbove,
		},
		{
			name:          "text defaults",
			req:           Request{Mode: ModeText},
			wantModel:     "text-model",
			wantThreshold: BlockLowAndAbove,
		},
		{
			name:          "context overlay",
			req:           Request{Mode: ModeChat, Context: "a haunted lighthouse"},
			wantModel:     "chat-model",
			wantContext:   "a haunted lighthouse",
			wantThreshold: BlockLowAndAbove,
		},
		{
			name:          "context ignored in text mode",
			req:           Request{Mode: ModeText, Context: "ignored"},
			wantModel:     "text-model",
			wantThreshold: BlockLowAndAbove,
		},
		{
			name:          "verbatim params",
			req:           Request{Mode: ModeChat, Params: override},
			wantModel:     "custom",
			wantThreshold: BlockOnlyHigh,
		},
		{
			name:          "filter disabled",
			req:           Request{Mode: ModeChat, Params: override, DisableContentFilter: true},
			wantModel:     "custom",
			wantThreshold: BlockNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Effective(tt.req, testDefaults)

			if got.Model != tt.wantModel {
				t.Errorf("expected model %s, got %s", tt.wantModel, got.Model)
			}
			if got.Context != tt.wantContext {
				t.Errorf("expected context %q, got %q", tt.wantContext, got.Context)
			}
			if got.SafetySettings[0].Threshold != tt.wantThreshold {
				t.Errorf("expected threshold %v, got %v", tt.wantThreshold, got.SafetySettings[0].Threshold)
			}
		})
	}

	if override.SafetySettings[0].Threshold != BlockOnlyHigh {
		t.Error("caller params were mutated")
	}
}

func TestResolveAPIKey(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, ".test_api_key.txt")
	if err := os.WriteFile(keyFile, []byte("  Y-file \n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	t.Run("explicit wins", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "Y")
		key, err := ResolveAPIKey("X", "TEST_API_KEY", keyFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != "X" {
			t.Errorf("expected X, got %s", key)
		}
	})

	t.Run("environment before file", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "Y")
		key, _ := ResolveAPIKey("", "TEST_API_KEY", keyFile)
		if key != "Y" {
			t.Errorf("expected Y, got %s", key)
		}
	})

	t.Run("file is trimmed", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "")
		key, _ := ResolveAPIKey("", "TEST_API_KEY", keyFile)
		if key != "Y-file" {
			t.Errorf("expected Y-file, got %q", key)
		}
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "")
		_, err := ResolveAPIKey("", "TEST_API_KEY", filepath.Join(dir, "absent.txt"))
		if !errors.Is(err, ErrMissingAPIKey) || !errors.Is(err, ErrConfig) {
			t.Errorf("expected ErrMissingAPIKey wrapped in ErrConfig, got %v", err)
		}
	})
}

type stubFactory struct{ opts Options }

func (f *stubFactory) Name() string                                 { return "stub" }
func (f *stubFactory) PromptFormat() conversation.Formatter         { return conversation.NewRoleFormatter("u", "m") }
func (f *stubFactory) PromptManager(string) (*prompts.Store, error) { return nil, nil }
func (f *stubFactory) NewConversation() *conversation.Conversation  { return conversation.New() }
func (f *stubFactory) NewDisplay() *conversation.Display            { return conversation.NewDisplay(nil, nil) }
func (f *stubFactory) Service() Service                             { return NewMockService("ok") }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", func(ctx context.Context, opts Options) (Factory, error) {
		return &stubFactory{opts: opts}, nil
	})
	r.Register("broken", func(ctx context.Context, opts Options) (Factory, error) {
		return nil, ErrMissingAPIKey
	})

	if got := r.Names(); !reflect.DeepEqual(got, []string{"broken", "stub"}) {
		t.Errorf("unexpected names: %v", got)
	}

	f, err := r.New(context.Background(), "stub", Options{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stub := f.(*stubFactory)
	if stub.opts.Logger == nil {
		t.Error("expected a default logger")
	}
	if stub.opts.Model != "m" {
		t.Errorf("options not passed through: %+v", stub.opts)
	}

	if _, err := r.New(context.Background(), "broken", Options{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected constructor error, got %v", err)
	}

	if _, err := r.New(context.Background(), "palm", Options{}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestMockService(t *testing.T) {
	tests := []struct {
		name    string
		mock    *MockService
		calls   int
		want    []string
		wantErr bool
	}{
		{
			name:  "scripted then repeat",
			mock:  NewMockService("a", "b"),
			calls: 3,
			want:  []string{"a", "b", "b"},
		},
		{
			name:  "empty script",
			mock:  NewMockService(),
			calls: 1,
			want:  []string{""},
		},
		{
			name:    "error",
			mock:    NewMockServiceWithError(ErrServiceUnavailable),
			calls:   2,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.calls; i++ {
				resp, err := tt.mock.Generate(context.Background(), Request{Mode: ModeText, Prompt: "p"})
				if tt.wantErr {
					if err == nil {
						t.Fatal("expected error but got none")
					}
					continue
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if resp.Text != tt.want[i] {
					t.Errorf("call %d: expected %q, got %q", i, tt.want[i], resp.Text)
				}
			}

			if tt.mock.Calls != tt.calls {
				t.Errorf("expected %d calls, got %d", tt.calls, tt.mock.Calls)
			}
			last, ok := tt.mock.LastRequest()
			if !ok || last.Prompt != "p" {
				t.Errorf("last request not recorded: %+v", last)
			}
		})
	}
}
