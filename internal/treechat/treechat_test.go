package treechat

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeplant/web/internal/auth"
	"github.com/treeplant/web/internal/middleware"
	redisx "github.com/treeplant/web/pkg/redis"
	"github.com/treeplant/web/pkg/response"
)

func init() { gin.SetMode(gin.TestMode) }

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

// fakeGemini answers every generateContent call with reply, or with status when non-zero.
type fakeGemini struct {
	reply   string
	status  int
	raw     string
	calls   atomic.Int32
	prompts chan string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	var req generateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if f.prompts != nil && len(req.Contents) > 0 {
		f.prompts <- req.Contents[0].Parts[0].Text
	}
	if f.raw != "" {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.raw)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid"}}`)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{"content": map[string]interface{}{"parts": []interface{}{map[string]string{"text": f.reply}}}},
		},
	})
}

func newGemini(t *testing.T, f *fakeGemini) *Gemini {
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewGemini(srv.URL, "gemini-2.0-flash", "test-key", time.Second, nil)
}

func newService(t *testing.T, model Model, objects ObjectStore) *Service {
	mr := miniredis.RunT(t)
	rdb := redisx.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	return NewService(rdb, model, Options{HistoryLimit: 4, Objects: objects, Now: func() time.Time { return testNow }}, nil)
}

func withPortrait(t *testing.T, svc *Service, user string) {
	t.Helper()
	_, err := svc.SavePortrait(context.Background(), user, []byte("png"), "image/png", ".png")
	require.NoError(t, err)
}

type fakeObjects struct {
	uploaded map[string][]byte
}

func (f *fakeObjects) UploadBytes(_ context.Context, bucket, key, _ string, data []byte) (string, error) {
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	f.uploaded[bucket+"/"+key] = data
	return "https://" + bucket + ".s3.amazonaws.com/" + key, nil
}

func (f *fakeObjects) GeneratePresignedDownloadURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + ".s3.amazonaws.com/" + key + "?signed=1", nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, bucket, key string) error {
	delete(f.uploaded, bucket+"/"+key)
	return nil
}

func (f *fakeObjects) PortraitsBucket() string { return "portraits" }
func (f *fakeObjects) PresignExpire() time.Duration { return time.Minute }

func TestGeminiRequestShape(t *testing.T) {
	var gotPath, gotKey string
	var body generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotKey = r.URL.Path, r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Hello, little sapling."}]}}]}`)
	}))
	defer srv.Close()

	text, err := NewGemini(srv.URL+"/", "gemini-2.0-flash", "k1", time.Second, nil).Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello, little sapling.", text)
	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "k1", gotKey)
	require.Len(t, body.Contents, 1)
	assert.Equal(t, "user", body.Contents[0].Role)
	assert.Equal(t, "hi", body.Contents[0].Parts[0].Text)
}

func TestGeminiErrorBodyHasNoText(t *testing.T) {
	_, err := newGemini(t, &fakeGemini{status: http.StatusBadRequest}).Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestTalkRequiresPortrait(t *testing.T) {
	fg := &fakeGemini{reply: "Plant more oaks."}
	svc := newService(t, newGemini(t, fg), nil)

	_, err := svc.Talk(context.Background(), "42", English, "hello")
	assert.ErrorIs(t, err, ErrPortraitRequired)
	assert.Zero(t, fg.calls.Load())
}

func TestTalkEmptyUtteranceSkipsModel(t *testing.T) {
	fg := &fakeGemini{reply: "Plant more oaks."}
	svc := newService(t, newGemini(t, fg), nil)
	withPortrait(t, svc, "42")

	reply, err := svc.Talk(context.Background(), "42", English, "   ")
	require.NoError(t, err)
	assert.False(t, reply.Heard)
	assert.Equal(t, UnheardLine, reply.Caption)
	assert.Zero(t, fg.calls.Load())
}

func TestTalkUsesPersonaPrompt(t *testing.T) {
	fg := &fakeGemini{reply: "मैं नीम हूँ।", prompts: make(chan string, 1)}
	svc := newService(t, newGemini(t, fg), nil)
	withPortrait(t, svc, "42")

	reply, err := svc.Talk(context.Background(), "42", Hindi, "तुम कौन हो?")
	require.NoError(t, err)
	assert.Equal(t, "मैं नीम हूँ।", reply.Caption)
	assert.Equal(t, "hi-IN", reply.Speech.Locale)
	prompt := <-fg.prompts
	assert.True(t, strings.HasPrefix(prompt, "आप एक बुद्धिमान"))
	assert.True(t, strings.HasSuffix(prompt, `"तुम कौन हो?"`))
}

func TestTalkFallbackLines(t *testing.T) {
	cases := []struct {
		name string
		fake *fakeGemini
		want string
	}{
		{"no text", &fakeGemini{status: http.StatusTooManyRequests}, personas[English].EmptyLine},
		{"garbage", &fakeGemini{status: http.StatusBadGateway, raw: "<html>"}, personas[English].ErrorLine},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(t, newGemini(t, tc.fake), nil)
			withPortrait(t, svc, "42")
			reply, err := svc.Talk(context.Background(), "42", English, "hello")
			require.NoError(t, err)
			assert.True(t, reply.Fallback)
			assert.Equal(t, tc.want, reply.Caption)
		})
	}
}

func TestTalkUnreachableModel(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	svc := newService(t, NewGemini(srv.URL, "m", "k", 200*time.Millisecond, nil), nil)
	withPortrait(t, svc, "42")

	reply, err := svc.Talk(context.Background(), "42", English, "hello")
	require.NoError(t, err)
	assert.Equal(t, "The wind seems to be interfering with my thoughts. Could you try again?", reply.Caption)
}

func TestHistoryIsCapped(t *testing.T) {
	fg := &fakeGemini{reply: "Rustle."}
	svc := newService(t, newGemini(t, fg), nil)
	withPortrait(t, svc, "42")

	for _, said := range []string{"one", "two", "three"} {
		_, err := svc.Talk(context.Background(), "42", English, said)
		require.NoError(t, err)
	}
	history, err := svc.History(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "two", history[0].Message)
	assert.Equal(t, "tree", history[3].Role)

	require.NoError(t, svc.Reset(context.Background(), "42"))
	history, err = svc.History(context.Background(), "42")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPortraitInObjectStore(t *testing.T) {
	objects := &fakeObjects{}
	svc := newService(t, &Gemini{}, objects)

	v, err := svc.SavePortrait(context.Background(), "42", []byte("png"), "image/png", ".png")
	require.NoError(t, err)
	require.Len(t, objects.uploaded, 1)
	for key := range objects.uploaded {
		assert.True(t, strings.HasPrefix(key, "portraits/portraits/42/"))
	}
	assert.Contains(t, v.URL, "signed=1")

	_, err = svc.SavePortrait(context.Background(), "42", []byte("png2"), "image/png", ".png")
	require.NoError(t, err)
	require.Len(t, objects.uploaded, 1)
	for _, data := range objects.uploaded {
		assert.Equal(t, []byte("png2"), data)
	}
}

func TestPortraitInlineWithoutObjectStore(t *testing.T) {
	svc := newService(t, &Gemini{}, nil)
	withPortrait(t, svc, "42")
	v, err := svc.Portrait(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,cG5n", v.URL)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestHandlerFlow(t *testing.T) {
	fg := &fakeGemini{reply: "Water me on Sundays."}
	svc := newService(t, newGemini(t, fg), nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextIdentity, auth.Identity{UserID: "42", Username: "alice"})
		c.Next()
	})
	NewHandler(svc, nil).RegisterRoutes(r.Group("/api"))

	talk := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/tree/talk", strings.NewReader(`{"language":"en","text":"hello"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := talk()
	assert.Equal(t, http.StatusConflict, w.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("portrait", "oak.png")
	require.NoError(t, err)
	_, _ = fw.Write(pngBytes(t))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/tree/portrait", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = talk()
	require.Equal(t, http.StatusOK, w.Code)
	var body response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, _ := body.Data.(map[string]interface{})
	assert.Equal(t, "Water me on Sundays.", data["caption"])
}
