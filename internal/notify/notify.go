package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/your-org/faceguard/internal/config"
	"github.com/your-org/faceguard/internal/models"
)

// Notification is one user-facing message about a recognition.
type Notification struct {
	Title string
	Body  string
}

// Backend delivers notifications through one channel. Available is probed
// once at startup; an unavailable backend is never selected, so delivery
// never silently disappears at send time.
type Backend interface {
	Name() string
	Available() bool
	Send(ctx context.Context, n Notification) error
}

// Select picks the configured backend, falling back to the log backend
// when the preferred one is not usable on this host. The decision is
// logged once so operators can see where notifications go.
func Select(cfg config.NotificationsConfig) Backend {
	var preferred Backend
	switch cfg.Backend {
	case "command":
		preferred = NewCommandBackend(cfg.Command)
	case "webhook":
		preferred = NewWebhookBackend(cfg.WebhookURL)
	case "", "log":
		preferred = NewLogBackend()
	default:
		slog.Warn("unknown notification backend, using log", "backend", cfg.Backend)
		preferred = NewLogBackend()
	}

	if !preferred.Available() {
		slog.Warn("notification backend unavailable, using log", "backend", preferred.Name())
		return NewLogBackend()
	}

	slog.Info("notification backend selected", "backend", preferred.Name())
	return preferred
}

// ForMessage builds at most one notification for a processed image.
// A group in frame would otherwise fan out into a burst of pings, so
// only the first resolved face is announced. The second return is
// false when the image had no faces.
func ForMessage(rec *models.RecognitionMessage) (Notification, bool) {
	if len(rec.Faces) == 0 {
		return Notification{}, false
	}
	return ForFace(rec.Faces[0]), true
}

// ForFace builds the notification text for one recognized face.
func ForFace(face models.RecognizedFace) Notification {
	switch {
	case face.IsNew:
		return Notification{
			Title: "New person detected",
			Body:  fmt.Sprintf("Unknown face registered as %s", face.PersonName),
		}
	case face.Status == models.StatusGreen:
		return Notification{
			Title: "Person recognized",
			Body:  fmt.Sprintf("%s at the door (%.1f%%)", face.PersonName, face.Confidence),
		}
	case face.Status == models.StatusYellow:
		return Notification{
			Title: "Possible match",
			Body:  fmt.Sprintf("Possibly %s (%.1f%%)", face.PersonName, face.Confidence),
		}
	default:
		return Notification{
			Title: "Unknown person",
			Body:  "An unrecognized face was detected",
		}
	}
}
