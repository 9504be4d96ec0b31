package rbac

const ResourceRequest = "request"

type Capability struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (c Capability) String() string {
	return c.Resource + ":" + c.Action
}

var (
	CapSubmit    = Capability{Resource: ResourceRequest, Action: "submit"}
	CapListOwn   = Capability{Resource: ResourceRequest, Action: "list_own"}
	CapListCEO   = Capability{Resource: ResourceRequest, Action: "list_ceo"}
	CapDecideCEO = Capability{Resource: ResourceRequest, Action: "decide_ceo"}
	CapListHR    = Capability{Resource: ResourceRequest, Action: "list_hr"}
	CapDecideHR  = Capability{Resource: ResourceRequest, Action: "decide_hr"}
	CapReport    = Capability{Resource: ResourceRequest, Action: "report"}
)

// DefaultPolicy maps every role to the capabilities it holds. The CEO is the first
// approval gate, HR the second and the only one allowed to export reports.
var DefaultPolicy = map[Role][]Capability{
	RoleEmployee: {CapSubmit, CapListOwn},
	RoleCEO:      {CapListCEO, CapDecideCEO},
	RoleHR:       {CapListHR, CapDecideHR, CapReport},
}
