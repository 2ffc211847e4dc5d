package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shriya-upadhyay/meridian/internal/models"
)

// Response shapes change between ledger API versions. Support a new shape by
// adding a matcher to the lists below, not by branching at call sites.

type idMatcher struct {
	name  string
	match func(v interface{}) (string, bool)
}

var createdIDMatchers = []idMatcher{
	{name: "bare-identifier", match: matchBareIdentifier},
	{name: "created-event", match: matchCreatedEvent},
	{name: "exercise-result", match: matchExerciseResult},
}

// ExtractCreatedContractID returns the identifier of the contract created by
// a command. It never fails: an unrecognised payload yields ("", false) and
// is logged in full.
func ExtractCreatedContractID(raw []byte) (string, bool) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err == nil {
		for _, m := range createdIDMatchers {
			if id, ok := m.match(v); ok {
				log.Debug().Str("shape", m.name).Str("contractId", id).Msg("Extracted created contract ID")
				return id, true
			}
		}
	}

	log.Warn().RawJSON("payload", asJSON(raw)).Msg("No created contract ID in ledger response")
	return "", false
}

func matchBareIdentifier(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

func matchCreatedEvent(v interface{}) (string, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}

	var events []interface{}
	for _, path := range [][]string{{"events"}, {"transaction", "events"}, {"result", "events"}} {
		if list, ok := lookup(obj, path...).([]interface{}); ok {
			events = list
			break
		}
	}

	for _, ev := range events {
		evObj, ok := ev.(map[string]interface{})
		if !ok {
			continue
		}
		for _, key := range []string{"CreatedEvent", "createdEvent", "created"} {
			created, ok := evObj[key].(map[string]interface{})
			if !ok {
				continue
			}
			if id := firstString(created, "contractId", "contract_id"); id != "" {
				return id, true
			}
		}
	}
	return "", false
}

func matchExerciseResult(v interface{}) (string, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	for _, path := range [][]string{
		{"result", "exerciseResult"},
		{"result", "exercise_result"},
		{"exerciseResult"},
		{"exercise_result"},
	} {
		switch res := lookup(obj, path...).(type) {
		case string:
			if res != "" {
				return res, true
			}
		case []interface{}:
			// Tuple results carry the successor contract first.
			if len(res) > 0 {
				if s, ok := res[0].(string); ok && s != "" {
					return s, true
				}
			}
		case map[string]interface{}:
			if s := firstString(res, "_1", "contractId"); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// =============================================================================
// Active Contracts
// =============================================================================

// eventMatchers locate the created-event object inside one active-contract
// entry.
var eventMatchers = []func(map[string]interface{}) (map[string]interface{}, bool){
	func(entry map[string]interface{}) (map[string]interface{}, bool) {
		ev, ok := lookup(entry, "contractEntry", "JsActiveContract", "createdEvent").(map[string]interface{})
		return ev, ok
	},
	func(entry map[string]interface{}) (map[string]interface{}, bool) {
		ev, ok := entry["createdEvent"].(map[string]interface{})
		return ev, ok
	},
	func(entry map[string]interface{}) (map[string]interface{}, bool) {
		if firstString(entry, "contractId", "contract_id") != "" {
			return entry, true
		}
		return nil, false
	},
}

// NormalizeActiveContracts flattens an active-contracts response into
// records. Entries in no known shape are skipped and logged.
func NormalizeActiveContracts(body []byte) ([]models.ContractRecord, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode active contracts: %w", err)
	}

	var entries []interface{}
	switch t := v.(type) {
	case []interface{}:
		entries = t
	case map[string]interface{}:
		for _, key := range []string{"results", "activeContracts", "result"} {
			if list, ok := t[key].([]interface{}); ok {
				entries = list
				break
			}
		}
	}

	records := make([]models.ContractRecord, 0, len(entries))
	for _, e := range entries {
		entry, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		record, ok := recordFromEntry(entry)
		if !ok {
			raw, _ := json.Marshal(entry)
			log.Warn().RawJSON("entry", raw).Msg("Skipping active contract in unknown shape")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func recordFromEntry(entry map[string]interface{}) (models.ContractRecord, bool) {
	for _, match := range eventMatchers {
		ev, ok := match(entry)
		if !ok {
			continue
		}
		id := firstString(ev, "contractId", "contract_id")
		if id == "" {
			continue
		}
		fields := map[string]interface{}{}
		for _, key := range []string{"createArgument", "createArguments", "payload", "argument"} {
			if f, ok := ev[key].(map[string]interface{}); ok {
				fields = f
				break
			}
		}
		return models.ContractRecord{
			ContractID: id,
			TemplateID: firstString(ev, "templateId", "template_id"),
			Fields:     fields,
		}, true
	}
	return models.ContractRecord{}, false
}

func lookup(obj map[string]interface{}, path ...string) interface{} {
	var cur interface{} = obj
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
