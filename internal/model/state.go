package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ProjectState 项目状态，序号即对外展示的规范序号
type ProjectState uint8

const (
	StateCancelled ProjectState = iota
	StateFunding
	StateBuildingStage1
	StateVotingRound1
	StateFailureRound1
	StateBuildingStage2
	StateVotingRound2
	StateFailureRound2
	StateBuildingStage3
	StateVotingRound3
	StateFailureRound3
	StateCompleted
)

// RoundCount 里程碑轮数
const RoundCount = 3

var stateNames = [...]string{
	StateCancelled:      "Cancelled",
	StateFunding:        "Funding",
	StateBuildingStage1: "BuildingStage1",
	StateVotingRound1:   "VotingRound1",
	StateFailureRound1:  "FailureRound1",
	StateBuildingStage2: "BuildingStage2",
	StateVotingRound2:   "VotingRound2",
	StateFailureRound2:  "FailureRound2",
	StateBuildingStage3: "BuildingStage3",
	StateVotingRound3:   "VotingRound3",
	StateFailureRound3:  "FailureRound3",
	StateCompleted:      "Completed",
}

// timelineLen 进度时间线长度（不含 Cancelled）
const timelineLen = len(stateNames) - 1

// String 状态名
func (s ProjectState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("ProjectState(%d)", uint8(s))
}

// Valid 是否为已知状态
func (s ProjectState) Valid() bool {
	return int(s) < len(stateNames)
}

// Ordinal 规范序号
func (s ProjectState) Ordinal() int {
	return int(s)
}

// ParseProjectState 按名称解析状态（大小写不敏感）
func ParseProjectState(name string) (ProjectState, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return ProjectState(i), nil
		}
	}
	return StateCancelled, fmt.Errorf("unknown project state %q", name)
}

// IsTerminal Cancelled、FailureRoundN、Completed 为终态
func (s ProjectState) IsTerminal() bool {
	switch s {
	case StateCancelled, StateFailureRound1, StateFailureRound2, StateFailureRound3, StateCompleted:
		return true
	}
	return false
}

// IsFailure 是否为某轮失败
func (s ProjectState) IsFailure() bool {
	return s == StateFailureRound1 || s == StateFailureRound2 || s == StateFailureRound3
}

// IsBuilding 是否处于建设阶段
func (s ProjectState) IsBuilding() bool {
	return s == StateBuildingStage1 || s == StateBuildingStage2 || s == StateBuildingStage3
}

// IsVoting 是否处于投票轮
func (s ProjectState) IsVoting() bool {
	return s == StateVotingRound1 || s == StateVotingRound2 || s == StateVotingRound3
}

// Round 建设/投票/失败状态所属的轮次下标(0..2)，其他状态返回 -1
func (s ProjectState) Round() int {
	if s < StateBuildingStage1 || s > StateFailureRound3 {
		return -1
	}
	return int(s-StateBuildingStage1) / 3
}

// BuildingState 第 round 轮的建设状态
func BuildingState(round int) ProjectState {
	return StateBuildingStage1 + ProjectState(round*3)
}

// VotingState 第 round 轮的投票状态
func VotingState(round int) ProjectState {
	return StateVotingRound1 + ProjectState(round*3)
}

// FailureState 第 round 轮的失败状态
func FailureState(round int) ProjectState {
	return StateFailureRound1 + ProjectState(round*3)
}

// Progress 展示用进度百分比
func (s ProjectState) Progress() float64 {
	if s == StateCancelled || s == StateCompleted {
		return 100
	}
	// 时间线下标 = 序号 - 1
	return float64(int(s)) / float64(timelineLen) * 100
}

// Tone 展示用色调
func (s ProjectState) Tone() string {
	switch {
	case s == StateCancelled:
		return "cancelled"
	case s == StateCompleted:
		return "completed"
	case s.IsFailure():
		return "failed"
	default:
		return "active"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (s ProjectState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid project state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *ProjectState) UnmarshalText(text []byte) error {
	v, err := ParseProjectState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value 以状态名入库
func (s ProjectState) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid project state %d", uint8(s))
	}
	return s.String(), nil
}

// Scan 实现 sql.Scanner
func (s *ProjectState) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into ProjectState", src)
	}
}
