package token

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LiveKitIssuer mints video-room access tokens. The core only needs a
// per-session identity string; it never interprets the token.
type LiveKitIssuer struct {
	APIKey    string
	APISecret string
	TTL       time.Duration
}

// videoGrant mirrors the LiveKit video grant claim.
type videoGrant struct {
	Room           string `json:"room"`
	RoomJoin       bool   `json:"roomJoin"`
	CanPublish     bool   `json:"canPublish"`
	CanSubscribe   bool   `json:"canSubscribe"`
	CanPublishData bool   `json:"canPublishData"`
}

type accessClaims struct {
	jwt.RegisteredClaims
	Video    videoGrant `json:"video"`
	Metadata string     `json:"metadata,omitempty"`
}

func NewLiveKitIssuer(apiKey, apiSecret string) *LiveKitIssuer {
	return &LiveKitIssuer{APIKey: apiKey, APISecret: apiSecret, TTL: 6 * time.Hour}
}

// Generate issues an HS256 access token granting the participant full
// publish/subscribe rights in the given room. sessionID, when set, rides
// along as JSON metadata.
func (i *LiveKitIssuer) Generate(roomName, participantName, sessionID string) (string, error) {
	if i.APIKey == "" || i.APISecret == "" {
		return "", fmt.Errorf("livekit api key and secret must be set")
	}

	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.APIKey,
			Subject:   participantName,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL)),
		},
		Video: videoGrant{
			Room:           roomName,
			RoomJoin:       true,
			CanPublish:     true,
			CanSubscribe:   true,
			CanPublishData: true,
		},
	}
	if sessionID != "" {
		meta, err := json.Marshal(map[string]string{"sessionId": sessionID})
		if err != nil {
			return "", err
		}
		claims.Metadata = string(meta)
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(i.APISecret))
}
