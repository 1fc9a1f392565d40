package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/google/uuid"
	"github.com/justsurfingit/campus-hire/internal/config"
)

const (
	tokenLifetime   = 24 * time.Hour
	mockRoomPrefix  = "mock-"
	mockTokenPrefix = "mock-token-"
)

// Room is a provisioned video room. Mock rooms are created locally when the
// video platform is unavailable.
type Room struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Mock bool   `json:"mock"`
}

type RoomToken struct {
	Token  string `json:"token"`
	RoomID string `json:"roomId"`
	Role   string `json:"role"`
	Mock   bool   `json:"mock"`
}

// VideoService is a thin client for the 100ms REST API.
type VideoService struct {
	Config config.VideoConfig
	HTTP   *http.Client
}

func NewVideoService(cfg config.VideoConfig) *VideoService {
	return &VideoService{Config: cfg, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

func (s *VideoService) Enabled() bool {
	return s.Config.AccessKey != "" && s.Config.Secret != ""
}

type hmsClaims struct {
	AccessKey string `json:"access_key"`
	Type      string `json:"type"`
	Version   int    `json:"version"`
	RoomID    string `json:"room_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`
}

func (s *VideoService) sign(custom hmsClaims) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(s.Config.Secret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("create signer: %w", err)
	}
	now := time.Now()
	std := jwt.Claims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	return jwt.Signed(signer).Claims(std).Claims(custom).CompactSerialize()
}

func (s *VideoService) managementToken() (string, error) {
	return s.sign(hmsClaims{AccessKey: s.Config.AccessKey, Type: "management", Version: 2})
}

// AppToken signs a client token joining roomID as role.
func (s *VideoService) AppToken(roomID, userID, role string) (*RoomToken, error) {
	if strings.HasPrefix(roomID, mockRoomPrefix) || !s.Enabled() {
		return &RoomToken{Token: mockTokenPrefix + uuid.NewString(), RoomID: roomID, Role: role, Mock: true}, nil
	}
	tok, err := s.sign(hmsClaims{
		AccessKey: s.Config.AccessKey,
		Type:      "app",
		Version:   2,
		RoomID:    roomID,
		UserID:    userID,
		Role:      role,
	})
	if err != nil {
		return nil, err
	}
	return &RoomToken{Token: tok, RoomID: roomID, Role: role}, nil
}

// CreateRoom provisions a room and its join code. It never fails: without
// credentials, or when the platform errors, a mock room is returned instead.
func (s *VideoService) CreateRoom(ctx context.Context, name, description string) Room {
	if !s.Enabled() {
		log.Println("⚠️  100ms credentials missing, creating mock room")
		return mockRoom()
	}
	room, err := s.createRoom(ctx, name, description)
	if err != nil {
		log.Printf("⚠️  100ms room creation failed, using mock room: %v", err)
		return mockRoom()
	}
	return room
}

func mockRoom() Room {
	id := uuid.NewString()
	return Room{ID: mockRoomPrefix + id, Code: mockRoomPrefix + id[:8], Mock: true}
}

func (s *VideoService) createRoom(ctx context.Context, name, description string) (Room, error) {
	token, err := s.managementToken()
	if err != nil {
		return Room{}, err
	}

	var created struct {
		ID string `json:"id"`
	}
	body := map[string]string{"name": name, "description": description}
	if s.Config.TemplateID != "" {
		body["template_id"] = s.Config.TemplateID
	}
	if err := s.post(ctx, token, "/v2/rooms", body, &created); err != nil {
		return Room{}, fmt.Errorf("create room: %w", err)
	}
	if created.ID == "" {
		return Room{}, fmt.Errorf("create room: empty room id")
	}

	var codes struct {
		Data []struct {
			Code    string `json:"code"`
			Role    string `json:"role"`
			Enabled bool   `json:"enabled"`
		} `json:"data"`
	}
	if err := s.post(ctx, token, "/v2/room-codes/room/"+created.ID, nil, &codes); err != nil {
		return Room{}, fmt.Errorf("create room codes: %w", err)
	}
	room := Room{ID: created.ID}
	for _, c := range codes.Data {
		if c.Enabled {
			room.Code = c.Code
			break
		}
	}
	return room, nil
}

func (s *VideoService) post(ctx context.Context, token, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.Config.APIBase, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("100ms API returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}
