package model

import "math"

type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusError      Status = "error"
)

// Solution is the outcome of one solve. Objective is NaN unless Status is
// StatusOptimal.
type Solution struct {
	Status    Status  `json:"status"`
	Params    Params  `json:"params"`
	Solar     float64 `json:"solar_mw"`
	Wind      float64 `json:"wind_mw"`
	Objective float64 `json:"objective"`
}

// NoSolution returns a solution carrying status s and no optimum.
func NoSolution(p Params, s Status) Solution {
	return Solution{
		Status:    s,
		Params:    p,
		Solar:     math.NaN(),
		Wind:      math.NaN(),
		Objective: math.NaN(),
	}
}

func (s Solution) HasObjective() bool {
	return s.Status == StatusOptimal && !math.IsNaN(s.Objective)
}

// TotalProduction returns x1 + x2 in MW.
func (s Solution) TotalProduction() float64 {
	return s.Solar + s.Wind
}

type Sense string

const (
	LessEq    Sense = "<="
	GreaterEq Sense = ">="
	Equal     Sense = "="
)

// ConstraintCheck is one constraint evaluated at a point.
type ConstraintCheck struct {
	Name      string
	LHS       float64
	Sense     Sense
	RHS       float64
	Slack     float64 // distance to the boundary, negative when violated
	Satisfied bool
	Binding   bool
}
