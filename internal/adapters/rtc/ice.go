package rtc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/config"
)

// DefaultICEServers are the public STUN servers the browser page used before
// ICE servers became configurable.
func DefaultICEServers() []webrtc.ICEServer {
	return []webrtc.ICEServer{
		{URLs: []string{"stun:stun.l.google.com:19302"}},
		{URLs: []string{"stun:stun1.l.google.com:19302"}},
	}
}

// ICEServers validates the configured servers. An empty list yields the defaults.
func ICEServers(cfg []config.ICEServerConfig) ([]webrtc.ICEServer, error) {
	if len(cfg) == 0 {
		return DefaultICEServers(), nil
	}
	out := make([]webrtc.ICEServer, 0, len(cfg))
	for i, sc := range cfg {
		server := webrtc.ICEServer{Username: strings.TrimSpace(sc.Username)}
		for _, url := range sc.URLs {
			if url = strings.TrimSpace(url); url != "" {
				server.URLs = append(server.URLs, url)
			}
		}
		if cred := strings.TrimSpace(sc.Credential); cred != "" {
			server.Credential = cred
		}
		if err := validateICEServer(server); err != nil {
			return nil, fmt.Errorf("ice_servers[%d]: %w", i, err)
		}
		out = append(out, server)
	}
	return out, nil
}

func validateICEServer(server webrtc.ICEServer) error {
	if len(server.URLs) == 0 {
		return errors.New("missing urls")
	}
	requiresTurnCreds := false
	for _, raw := range server.URLs {
		uri, err := stun.ParseURI(raw)
		if err != nil {
			return fmt.Errorf("url %q: %w", raw, err)
		}
		if uri.Scheme == stun.SchemeTypeTURN || uri.Scheme == stun.SchemeTypeTURNS {
			requiresTurnCreds = true
		}
	}
	if requiresTurnCreds {
		if server.Username == "" {
			return errors.New("turn urls require username")
		}
		if cred, ok := server.Credential.(string); !ok || cred == "" {
			return errors.New("turn urls require credential")
		}
	}
	return nil
}

// ICEServerDTO is the browser RTCIceServer shape.
type ICEServerDTO struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

func ToDTO(servers []webrtc.ICEServer) []ICEServerDTO {
	out := make([]ICEServerDTO, 0, len(servers))
	for _, s := range servers {
		dto := ICEServerDTO{URLs: s.URLs, Username: s.Username}
		if cred, ok := s.Credential.(string); ok {
			dto.Credential = cred
		}
		out = append(out, dto)
	}
	return out
}
