package models

// FlowType selects which feedback flow the host should present next.
type FlowType string

const (
	FlowPositive FlowType = "positive"
	FlowNeutral  FlowType = "neutral"
	FlowNegative FlowType = "negative"
)

// Values used by the collection endpoint.
const (
	wireFlowNormal      = "normal"
	wireFlowNeutral     = "neutral"
	wireFlowFrustration = "frustration"
)

// ParseWireFlowType maps the endpoint's flow_type. Unknown values fall back to neutral.
func ParseWireFlowType(s string) FlowType {
	switch s {
	case wireFlowNormal:
		return FlowPositive
	case wireFlowFrustration:
		return FlowNegative
	default:
		return FlowNeutral
	}
}

func (f FlowType) WireValue() string {
	switch f {
	case FlowPositive:
		return wireFlowNormal
	case FlowNegative:
		return wireFlowFrustration
	default:
		return wireFlowNeutral
	}
}
