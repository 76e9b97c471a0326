package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mroshb/apex_bot/internal/models"
)

func testPrompt() RidePrompt {
	return RidePrompt{
		Title:     "Angeles Crest Run",
		Level:     models.LevelB,
		Distance:  120.5,
		Elevation: 2500,
		Terrain:   models.TerrainMountains,
	}
}

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	})
	return string(b)
}

func TestFallback_ContainsRideValues(t *testing.T) {
	got := Fallback(testPrompt())

	for _, want := range []string{"Angeles Crest Run", "120.5", "2500", "Mountains"} {
		if !strings.Contains(got.Description, want) {
			t.Errorf("Fallback().Description = %q, want it to contain %q", got.Description, want)
		}
	}
	if got.Tips != fallbackTips {
		t.Errorf("Fallback().Tips = %q, want %q", got.Tips, fallbackTips)
	}
}

func TestNewProvider_NoKeyUsesFallback(t *testing.T) {
	p := NewProvider(nil, "  ", "")
	if _, ok := p.(FallbackProvider); !ok {
		t.Fatalf("NewProvider() = %T, want FallbackProvider", p)
	}
	got := p.Generate(context.Background(), testPrompt())
	if got != Fallback(testPrompt()) {
		t.Errorf("Generate() = %+v, want fallback", got)
	}
}

func TestGeminiClient_Generate(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   RideCopy
	}{
		{
			name:   "Well-formed answer",
			status: http.StatusOK,
			body:   candidateBody(`{"description":"Carve the twisties.","tips":"Wear leathers."}`),
			want:   RideCopy{Description: "Carve the twisties.", Tips: "Wear leathers."},
		},
		{
			name:   "Fenced JSON",
			status: http.StatusOK,
			body:   candidateBody("```json\n{\"description\":\"Lean in.\",\"tips\":\"Check chain.\"}\n```"),
			want:   RideCopy{Description: "Lean in.", Tips: "Check chain."},
		},
		{
			name:   "Missing tips field",
			status: http.StatusOK,
			body:   candidateBody(`{"description":"Sunset cruise."}`),
			want:   RideCopy{Description: "Sunset cruise.", Tips: defaultTips},
		},
		{
			name:   "Missing description field",
			status: http.StatusOK,
			body:   candidateBody(`{"tips":"Bring rain gear."}`),
			want:   RideCopy{Description: defaultDescription, Tips: "Bring rain gear."},
		},
		{
			name:   "Server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"boom"}}`,
			want:   Fallback(testPrompt()),
		},
		{
			name:   "Malformed envelope",
			status: http.StatusOK,
			body:   `not json`,
			want:   Fallback(testPrompt()),
		},
		{
			name:   "Text is not JSON",
			status: http.StatusOK,
			body:   candidateBody("Sorry, I can't help with that."),
			want:   Fallback(testPrompt()),
		},
		{
			name:   "No candidates",
			status: http.StatusOK,
			body:   `{"candidates":[]}`,
			want:   Fallback(testPrompt()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey, gotPath string
			var gotReq geminiRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotKey = r.Header.Get("x-goog-api-key")
				gotPath = r.URL.Path
				_ = json.NewDecoder(r.Body).Decode(&gotReq)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewGeminiClient(srv.Client(), "test-key", "").WithBaseURL(srv.URL)
			got := client.Generate(context.Background(), testPrompt())

			if got != tt.want {
				t.Errorf("Generate() = %+v, want %+v", got, tt.want)
			}
			if gotKey != "test-key" {
				t.Errorf("x-goog-api-key = %q, want %q", gotKey, "test-key")
			}
			if gotPath != "/models/"+DefaultModel+":generateContent" {
				t.Errorf("path = %q", gotPath)
			}
			if gotReq.GenerationConfig.ResponseMIMEType != "application/json" {
				t.Errorf("responseMimeType = %q, want application/json", gotReq.GenerationConfig.ResponseMIMEType)
			}
			if len(gotReq.Contents) != 1 || !strings.Contains(gotReq.Contents[0].Parts[0].Text, "Angeles Crest Run") {
				t.Errorf("prompt does not mention the ride title: %+v", gotReq.Contents)
			}
		})
	}
}

func TestGeminiClient_NoKeySkipsCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	got := NewGeminiClient(srv.Client(), "", "").WithBaseURL(srv.URL).Generate(context.Background(), testPrompt())
	if called {
		t.Error("Generate() without key made an HTTP call")
	}
	if got != Fallback(testPrompt()) {
		t.Errorf("Generate() = %+v, want fallback", got)
	}
}

func TestGeminiClient_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewGeminiClient(srv.Client(), "k", "").WithBaseURL(srv.URL).Generate(ctx, testPrompt())
	if got != Fallback(testPrompt()) {
		t.Errorf("Generate() = %+v, want fallback", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(testPrompt())
	for _, want := range []string{"Title: Angeles Crest Run", "Group Level: B", "Distance: 120.5 miles", "Elevation Gain: 2500 feet", "Terrain Type: Mountains", "Return ONLY raw JSON."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("buildPrompt() missing %q", want)
		}
	}
}
