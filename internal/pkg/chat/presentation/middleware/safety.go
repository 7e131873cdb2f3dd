package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

const maxMessageLength = 4000

var bannedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)child\s*sexual`),
	regexp.MustCompile(`(?i)explosive|bomb|napalm`),
	regexp.MustCompile(`(?i)terror(ist|ism)`),
}

// Minimal prompt-injection scrub applied to inbound text.
var injectionPattern = regexp.MustCompile(`(?i)(ignore|bypass).*?(rules|instructions)`)

// Content policy failures raised by FilterMessage.
var (
	ErrMessageRequired = errors.New("message is required")
	ErrMessageTooLong  = errors.New("message too long")
	ErrMessageBlocked  = errors.New("blocked by safety policy")
)

// FilterMessage applies the content policy to one inbound message: require
// text, cap its length, reject banned content, scrub obvious injection
// phrasing. It returns the (possibly scrubbed) text to forward. Both the
// HTTP pre-filter and the websocket frame loop run every message through
// here.
func FilterMessage(text string) (string, error) {
	if text == "" {
		return "", ErrMessageRequired
	}
	if len(text) > maxMessageLength {
		return "", ErrMessageTooLong
	}
	for _, re := range bannedPatterns {
		if re.MatchString(text) {
			return "", ErrMessageBlocked
		}
	}
	return injectionPattern.ReplaceAllString(text, "[filtered]"), nil
}

// Safety pre-filters the inbound message before it reaches the controller.
// The scrubbed body is restored so downstream binding sees the filtered
// message.
func Safety() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}

		var body map[string]json.RawMessage
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
				return
			}
		}

		var text string
		if m, ok := body["message"]; ok {
			_ = json.Unmarshal(m, &text)
		}

		filtered, err := FilterMessage(text)
		switch {
		case errors.Is(err, ErrMessageTooLong):
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if filtered != text {
			enc, err := json.Marshal(filtered)
			if err == nil {
				body["message"] = enc
				if raw, err = json.Marshal(body); err != nil {
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
					return
				}
			}
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		c.Next()
	}
}
