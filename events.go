/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package smashpp

import "time"

// Event types the engine fires during training and compression. No default
// listener implementation ships here: formatting and printing progress is a
// caller concern, same boundary kanzi draws between its core and its
// InfoPrinter.
const (
	EvtTrainStart      = 0 // training of one model begins
	EvtTrainEnd        = 1 // training of one model ends
	EvtCompressStart   = 2 // compression of the target begins
	EvtCompressSymbol  = 3 // periodic progress during compression
	EvtCompressEnd     = 4 // compression ends; Processed is the symbol count
	EvtSTMMStateChange = 5 // a sub-model toggled Enabled/Disabled
)

// Event describes a single occurrence during training or compression.
type Event struct {
	eventType int
	modelIdx  int
	processed int64
	eventTime time.Time
	msg       string
}

// NewEvent creates an Event for the given model index and processed count.
func NewEvent(evtType, modelIdx int, processed int64) *Event {
	return &Event{eventType: evtType, modelIdx: modelIdx, processed: processed, eventTime: time.Now()}
}

// NewEventFromString creates an Event that only wraps a diagnostic message.
func NewEventFromString(evtType int, msg string) *Event {
	return &Event{eventType: evtType, modelIdx: -1, eventTime: time.Now(), msg: msg}
}

// Type returns the event type.
func (e *Event) Type() int { return e.eventType }

// ModelIndex returns the index, within the declared model order, this event
// pertains to, or -1 if not model-specific.
func (e *Event) ModelIndex() int { return e.modelIdx }

// Processed returns a type-dependent count (bytes trained, symbols
// compressed).
func (e *Event) Processed() int64 { return e.processed }

// Time returns when the event was created.
func (e *Event) Time() time.Time { return e.eventTime }

// String returns the wrapped message, if any.
func (e *Event) String() string { return e.msg }

// Listener is implemented by anything that wants to observe training and
// compression progress. The engine never formats or prints; it only calls
// ProcessEvent on every registered Listener.
type Listener interface {
	ProcessEvent(evt *Event)
}
