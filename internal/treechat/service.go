package treechat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisx "github.com/treeplant/web/pkg/redis"
	"github.com/treeplant/web/pkg/storage"
)

// UnheardLine is the answer to an empty utterance. No model call is made.
const UnheardLine = "I couldn't hear you clearly, friend. Try speaking a bit louder!"

var (
	ErrPortraitRequired = errors.New("Please upload an image of your tree first!")
	ErrUnknownLanguage  = errors.New("unsupported language")
)

// Speech tells the browser how to read the reply aloud.
type Speech struct {
	Locale string  `json:"locale"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
}

// Turn is one line of the conversation.
type Turn struct {
	Role     string    `json:"role"` // "user" or "tree"
	Message  string    `json:"message"`
	Language Language  `json:"language"`
	At       time.Time `json:"at"`
}

// Reply is the tree's answer to one utterance.
type Reply struct {
	Heard    bool    `json:"heard"`
	Caption  string  `json:"caption"`
	Speech   *Speech `json:"speech,omitempty"`
	History  []Turn  `json:"history,omitempty"`
	Fallback bool    `json:"fallback,omitempty"`
}

// Portrait is the stored tree picture. Key is set when the image lives in
// object storage, Data when it is kept inline in Redis.
type Portrait struct {
	Key         string    `json:"key,omitempty"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// PortraitView is what the browser gets back: a URL it can put in an img tag.
type PortraitView struct {
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ObjectStore is the subset of storage.S3 used for portraits.
type ObjectStore interface {
	UploadBytes(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
	GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	PortraitsBucket() string
	PresignExpire() time.Duration
}

// Options tunes a Service.
type Options struct {
	HistoryLimit int
	TTL          time.Duration
	Objects      ObjectStore // nil keeps portraits in Redis
	Now          func() time.Time
}

// Service holds portraits and history per user and talks to the model.
type Service struct {
	rdb     *redisx.Client
	model   Model
	objects ObjectStore
	limit   int
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates the chat service.
func NewService(rdb *redisx.Client, model Model, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 40
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		rdb:     rdb,
		model:   model,
		objects: opts.Objects,
		limit:   opts.HistoryLimit,
		ttl:     opts.TTL,
		now:     opts.Now,
		logger:  logger,
	}
}

func portraitKey(user string) string { return "tree:portrait:" + user }
func historyKey(user string) string  { return "tree:chat:" + user }

// SavePortrait stores the user's tree picture, replacing any earlier one.
// data must already be a checked image.
func (s *Service) SavePortrait(ctx context.Context, user string, data []byte, contentType, ext string) (*PortraitView, error) {
	p := Portrait{ContentType: contentType, UploadedAt: s.now()}
	var previous string
	if s.objects != nil {
		if old, err := s.portrait(ctx, user); err == nil {
			previous = old.Key
		}
		key := storage.PortraitKey(user, uuid.NewString(), ext)
		if _, err := s.objects.UploadBytes(ctx, s.objects.PortraitsBucket(), key, contentType, data); err != nil {
			return nil, fmt.Errorf("upload portrait: %w", err)
		}
		p.Key = key
	} else {
		p.Data = data
	}
	if err := s.rdb.SetJSON(ctx, portraitKey(user), p, s.ttl); err != nil {
		return nil, err
	}
	if previous != "" {
		if err := s.objects.DeleteObject(context.WithoutCancel(ctx), s.objects.PortraitsBucket(), previous); err != nil {
			s.logger.Warn("delete old portrait failed", zap.String("key", previous), zap.Error(err))
		}
	}
	return s.view(ctx, &p)
}

// Portrait returns the user's tree picture, or ErrPortraitRequired.
func (s *Service) Portrait(ctx context.Context, user string) (*PortraitView, error) {
	p, err := s.portrait(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

func (s *Service) portrait(ctx context.Context, user string) (*Portrait, error) {
	var p Portrait
	err := s.rdb.GetJSON(ctx, portraitKey(user), &p)
	if errors.Is(err, redisx.ErrMiss) {
		return nil, ErrPortraitRequired
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) view(ctx context.Context, p *Portrait) (*PortraitView, error) {
	v := &PortraitView{ContentType: p.ContentType, UploadedAt: p.UploadedAt}
	if p.Key != "" && s.objects != nil {
		u, err := s.objects.GeneratePresignedDownloadURL(ctx, s.objects.PortraitsBucket(), p.Key, s.objects.PresignExpire())
		if err != nil {
			return nil, err
		}
		v.URL = u
		return v, nil
	}
	v.URL = "data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
	return v, nil
}

// Talk answers one utterance. Model failures are answered with the persona's
// fallback line, so the only errors are a missing portrait, an unknown
// language and storage failures.
func (s *Service) Talk(ctx context.Context, user string, lang Language, utterance string) (*Reply, error) {
	persona, ok := Lookup(lang)
	if !ok {
		return nil, ErrUnknownLanguage
	}
	if lang == "" {
		lang = English
	}
	if _, err := s.portrait(ctx, user); err != nil {
		return nil, err
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return &Reply{Heard: false, Caption: UnheardLine}, nil
	}
	if err := s.append(ctx, user, Turn{Role: "user", Message: utterance, Language: lang, At: s.now()}); err != nil {
		return nil, err
	}

	reply := &Reply{Heard: true, Speech: &Speech{Locale: persona.Locale, Rate: 0.9, Pitch: 1.1}}
	text, err := s.model.Generate(ctx, persona.Prompt(utterance))
	switch {
	case errors.Is(err, ErrNoText):
		reply.Caption, reply.Fallback = persona.EmptyLine, true
	case err != nil:
		s.logger.Warn("tree model call failed", zap.String("language", string(lang)), zap.Error(err))
		reply.Caption, reply.Fallback = persona.ErrorLine, true
	default:
		reply.Caption = strings.TrimSpace(text)
	}

	// The reply is recorded even if the browser has gone.
	if err := s.append(context.WithoutCancel(ctx), user, Turn{Role: "tree", Message: reply.Caption, Language: lang, At: s.now()}); err != nil {
		return nil, err
	}
	history, err := s.History(ctx, user)
	if err != nil {
		s.logger.Warn("load tree chat history failed", zap.Error(err))
	}
	reply.History = history
	return reply, nil
}

func (s *Service) append(ctx context.Context, user string, t Turn) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := historyKey(user)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, int64(-s.limit), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// History returns the conversation, oldest first.
func (s *Service) History(ctx context.Context, user string) ([]Turn, error) {
	rows, err := s.rdb.LRange(ctx, historyKey(user), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]Turn, 0, len(rows))
	for _, row := range rows {
		var t Turn
		if err := json.Unmarshal([]byte(row), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Reset forgets the conversation. The portrait is kept.
func (s *Service) Reset(ctx context.Context, user string) error {
	if err := s.rdb.Del(ctx, historyKey(user)).Err(); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	return nil
}
