package model

import "encoding/json"

// Topic is the stored topic payload: {"topic": ["...", ...]}.
type Topic struct {
	Items []string
}

func NewTopic(items ...string) Topic {
	if items == nil {
		items = []string{}
	}
	return Topic{Items: items}
}

func (t Topic) MarshalJSON() ([]byte, error) {
	items := t.Items
	if items == nil {
		items = []string{}
	}
	return json.Marshal(struct {
		Topic []string `json:"topic"`
	}{Topic: items})
}

// UnmarshalJSON is lenient and is only used for rows read back from storage;
// request payloads go through validation.ParseTopic.
func (t *Topic) UnmarshalJSON(data []byte) error {
	var raw struct {
		Topic []string `json:"topic"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Items = raw.Topic
	if t.Items == nil {
		t.Items = []string{}
	}
	return nil
}
