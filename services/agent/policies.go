package agent

import (
	"fmt"
	"regexp"

	"github.com/HummdG/taza-ticket-clean/models"
	"github.com/HummdG/taza-ticket-clean/services/flights"

	"go.uber.org/zap"
)

// Node identifies one stage of the turn pipeline.
type Node string

const (
	NodeReformulate Node = "reformulate"
	NodeFillSlots   Node = "fill_slots"
	NodePlanSearch  Node = "plan_search"
	NodeRunSearch   Node = "run_search"
	NodeSummarize   Node = "summarize"
	NodeRespond     Node = "respond"
	NodeClarify     Node = "clarify"
)

// entryNode is where every turn starts.
const entryNode = NodeReformulate

// transitions lists the permitted successors of each node. Terminal nodes
// map to nil. Every decision function must return one of the successors
// listed here; runGraph enforces this at runtime and validateTransitions
// checks the table itself at construction.
var transitions = map[Node][]Node{
	NodeReformulate: {NodeFillSlots, NodePlanSearch},
	NodeFillSlots:   {NodePlanSearch},
	NodePlanSearch:  {NodeRunSearch, NodeClarify, NodeRespond},
	NodeRunSearch:   {NodeSummarize, NodeRespond},
	NodeSummarize:   {NodeRespond},
	NodeClarify:     nil,
	NodeRespond:     nil,
}

func validateTransitions() error {
	if _, ok := transitions[entryNode]; !ok {
		return fmt.Errorf("entry node %s is not in the transition table", entryNode)
	}
	terminals := 0
	for node, targets := range transitions {
		if len(targets) == 0 {
			terminals++
		}
		for _, t := range targets {
			if _, ok := transitions[t]; !ok {
				return fmt.Errorf("node %s references unknown successor %s", node, t)
			}
		}
	}
	if terminals == 0 {
		return fmt.Errorf("transition table has no terminal node")
	}
	return nil
}

func isTerminal(n Node) bool {
	return len(transitions[n]) == 0
}

func allowedTransition(from, to Node) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MissingRequiredSlots names the criteria still needed before a search can
// run. A return date is only required for round trips searched on an exact
// date; month and range searches pick flexible returns themselves.
func MissingRequiredSlots(slots models.Slots) []string {
	var missing []string
	if slots.FromCity == "" || len(slots.FromIATACodes) == 0 {
		missing = append(missing, "origin city")
	}
	if slots.ToCity == "" || len(slots.ToIATACodes) == 0 {
		missing = append(missing, "destination city")
	}
	if slots.Date == "" {
		missing = append(missing, "travel date")
	}
	if slots.TripType == models.TripRoundTrip && slots.ReturnDate == "" &&
		slots.DateSearchType == models.DateSearchExact {
		missing = append(missing, "return date")
	}
	return missing
}

// ValidateSlots reports values that are present but unusable as-is.
func ValidateSlots(slots models.Slots) []string {
	var issues []string
	codes := make([]string, 0, len(slots.FromIATACodes)+len(slots.ToIATACodes))
	codes = append(codes, slots.FromIATACodes...)
	codes = append(codes, slots.ToIATACodes...)
	for _, code := range codes {
		if len(code) != 3 {
			issues = append(issues, fmt.Sprintf("airport code %q is not a three-letter code", code))
		}
	}
	if slots.Passengers != 0 && (slots.Passengers < 1 || slots.Passengers > 9) {
		issues = append(issues, "passenger count must be between 1 and 9")
	}
	if slots.Date != "" && !isoDate.MatchString(slots.Date) {
		issues = append(issues, "travel date must be in YYYY-MM-DD format")
	}
	if slots.ReturnDate != "" && !isoDate.MatchString(slots.ReturnDate) {
		issues = append(issues, "return date must be in YYYY-MM-DD format")
	}
	return issues
}

// ShouldUseCachedResults reports whether the accumulated slots fingerprint
// to the search that already completed for this conversation.
func ShouldUseCachedResults(conv *models.Conversation, slots models.Slots) bool {
	return conv.LastCompletedSearch != "" &&
		flights.SearchHash(slots) == conv.LastCompletedSearch
}

func decideAfterReformulate(tc *TurnContext) Node {
	if tc.Reformulated != nil {
		return NodeFillSlots
	}
	return NodePlanSearch
}

func decideAfterFillSlots(*TurnContext) Node {
	return NodePlanSearch
}

func decideAfterPlanSearch(tc *TurnContext) Node {
	if tc.NeedsClarification {
		return NodeClarify
	}
	if tc.ShouldSearch {
		return NodeRunSearch
	}
	return NodeRespond
}

func decideAfterRunSearch(tc *TurnContext) Node {
	if len(tc.SearchResults) > 1 {
		return NodeSummarize
	}
	return NodeRespond
}

func decideAfterSummarize(*TurnContext) Node {
	return NodeRespond
}

func decideNext(node Node, tc *TurnContext) Node {
	var next Node
	switch node {
	case NodeReformulate:
		next = decideAfterReformulate(tc)
	case NodeFillSlots:
		next = decideAfterFillSlots(tc)
	case NodePlanSearch:
		next = decideAfterPlanSearch(tc)
	case NodeRunSearch:
		next = decideAfterRunSearch(tc)
	case NodeSummarize:
		next = decideAfterSummarize(tc)
	default:
		next = NodeRespond
	}
	zap.L().Debug("turn transition",
		zap.String("from", string(node)),
		zap.String("to", string(next)),
		zap.Bool("should_search", tc.ShouldSearch),
		zap.Bool("needs_clarification", tc.NeedsClarification),
		zap.Int("results", len(tc.SearchResults)))
	return next
}
