package pulsekit

import (
	"time"

	"github.com/google/uuid"
	"github.com/teracrafts/pulsekit-go/internal/version"
	"github.com/teracrafts/pulsekit-go/types"
)

// maxMessageBytes is the recommended ceiling for one encoded message.
// Oversized messages are still enqueued; the ingestion endpoint may reject
// them, so a warning is logged instead of failing the call.
const maxMessageBytes = 900 * 1024

// Message is an analytics call that can be enqueued: Capture, Identify,
// Alias, or GroupIdentify.
type Message interface {
	// Validate checks the message's argument shape. Validation failures are
	// configuration errors and fail fast at the call site.
	Validate() error

	// apiMessage normalizes the message into its wire shape and returns the
	// per-message completion callback, if any.
	apiMessage() (types.APIMessage, func(error))
}

// Capture records an analytics event for a distinct id.
type Capture struct {
	DistinctID string
	Event      string
	Timestamp  time.Time
	Properties map[string]any
	Groups     map[string]string

	// Completion, if non-nil, is invoked exactly once with the outcome of
	// the message's delivery.
	Completion func(error)
}

// Validate implements Message.
func (m Capture) Validate() error {
	if m.Event == "" {
		return NewError(ErrConfigInvalidMessage, "capture requires an event name")
	}
	if m.DistinctID == "" {
		return NewError(ErrConfigInvalidMessage, "capture requires a distinct id")
	}
	return nil
}

func (m Capture) apiMessage() (types.APIMessage, func(error)) {
	properties := libraryProperties(m.Properties)
	if len(m.Groups) > 0 {
		properties["$groups"] = m.Groups
	}

	msg := baseMessage("capture", m.Event, m.DistinctID, m.Timestamp)
	msg["properties"] = properties
	return msg, m.Completion
}

// Identify associates properties with a distinct id.
type Identify struct {
	DistinctID string
	Timestamp  time.Time
	Properties map[string]any

	Completion func(error)
}

// Validate implements Message.
func (m Identify) Validate() error {
	if m.DistinctID == "" {
		return NewError(ErrConfigInvalidMessage, "identify requires a distinct id")
	}
	return nil
}

func (m Identify) apiMessage() (types.APIMessage, func(error)) {
	msg := baseMessage("identify", "$identify", m.DistinctID, m.Timestamp)
	msg["$set"] = libraryProperties(m.Properties)
	return msg, m.Completion
}

// Alias links a new distinct id to an existing one.
type Alias struct {
	DistinctID string
	Alias      string
	Timestamp  time.Time

	Completion func(error)
}

// Validate implements Message.
func (m Alias) Validate() error {
	if m.DistinctID == "" {
		return NewError(ErrConfigInvalidMessage, "alias requires a distinct id")
	}
	if m.Alias == "" {
		return NewError(ErrConfigInvalidMessage, "alias requires an alias")
	}
	return nil
}

func (m Alias) apiMessage() (types.APIMessage, func(error)) {
	properties := libraryProperties(nil)
	properties["distinct_id"] = m.DistinctID
	properties["alias"] = m.Alias

	msg := baseMessage("alias", "$create_alias", m.DistinctID, m.Timestamp)
	msg["properties"] = properties
	return msg, m.Completion
}

// GroupIdentify associates properties with a group.
type GroupIdentify struct {
	GroupType  string
	GroupKey   string
	Timestamp  time.Time
	Properties map[string]any

	Completion func(error)
}

// Validate implements Message.
func (m GroupIdentify) Validate() error {
	if m.GroupType == "" {
		return NewError(ErrConfigInvalidMessage, "group identify requires a group type")
	}
	if m.GroupKey == "" {
		return NewError(ErrConfigInvalidMessage, "group identify requires a group key")
	}
	return nil
}

func (m GroupIdentify) apiMessage() (types.APIMessage, func(error)) {
	properties := libraryProperties(nil)
	properties["$group_type"] = m.GroupType
	properties["$group_key"] = m.GroupKey
	if len(m.Properties) > 0 {
		properties["$group_set"] = m.Properties
	}

	msg := baseMessage("capture", "$groupidentify", "$"+m.GroupType+"_"+m.GroupKey, m.Timestamp)
	msg["properties"] = properties
	return msg, m.Completion
}

// baseMessage builds the fields shared by all normalized messages.
func baseMessage(msgType, event, distinctID string, timestamp time.Time) types.APIMessage {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	return types.APIMessage{
		"type":            msgType,
		"event":           event,
		"distinct_id":     distinctID,
		"timestamp":       timestamp.UTC().Format(time.RFC3339),
		"messageId":       uuid.NewString(),
		"library":         version.SDKName,
		"library_version": version.SDKVersion,
	}
}

// libraryProperties copies props and stamps the SDK identity into it.
func libraryProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props)+2)
	for k, v := range props {
		out[k] = v
	}
	out["$lib"] = version.SDKName
	out["$lib_version"] = version.SDKVersion
	return out
}
