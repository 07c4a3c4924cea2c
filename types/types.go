package types

// ---- Common service state (retained) ----

type ServiceState struct {
	Level  string `json:"level"`  // e.g. "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// ---- Device kinds & info ----

type Kind string

const (
	KindLED     Kind = "led"
	KindSpeaker Kind = "speaker"
)

// Info envelope each device exposes (retained)
type Info struct {
	SchemaVersion int         `json:"schema_version"`
	Driver        string      `json:"driver"`
	Detail        interface{} `json:"detail,omitempty"`
}

type LEDInfo struct {
	Pin int `json:"pin"`
}

type SpeakerInfo struct {
	Pin int `json:"pin"`
}

// ---- LED payloads ----

type LEDSet struct {
	State LEDState `json:"state"`
}

type LEDValue struct {
	State LEDState `json:"state"`
	TS    int64    `json:"ts_ms"`
}

// ---- Speaker payloads ----

type SpeakerSet struct {
	Mode  SpeakerMode  `json:"mode"`
	Sound SpeakerSound `json:"sound"`
}

type SpeakerValue struct {
	Mode  SpeakerMode  `json:"mode"`
	Sound SpeakerSound `json:"sound"`
	TS    int64        `json:"ts_ms"`
}

// OKReply is sent on a message's ReplyTo topic when a set was applied.
type OKReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
