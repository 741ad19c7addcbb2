package engine

import "fmt"

const (
	// Validation constants
	MinGridSize = 1
	MaxGridSize = 50

	DefaultRows           = 6
	DefaultCols           = 10
	DefaultStartingEnergy = 100
	DefaultEnergyPerStep  = 1.0
	DefaultSpeed          = 1.0
)

// Cell is a (row, col) grid coordinate
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// String formats the cell the way the console reports it
func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// Add returns the cell displaced by d
func (c Cell) Add(d Direction) Cell {
	return Cell{Row: c.Row + d.DRow, Col: c.Col + d.DCol}
}

// Direction is a row/column step vector
type Direction struct {
	DRow int `json:"drow"`
	DCol int `json:"dcol"`
}

var (
	Up    = Direction{DRow: -1}
	Down  = Direction{DRow: 1}
	Left  = Direction{DCol: -1}
	Right = Direction{DCol: 1}
)

// IsZero reports whether the direction is (0,0)
func (d Direction) IsZero() bool {
	return d.DRow == 0 && d.DCol == 0
}

// Scale multiplies both components by n
func (d Direction) Scale(n int) Direction {
	return Direction{DRow: d.DRow * n, DCol: d.DCol * n}
}

// Name returns "up", "down", "left", "right" for unit directions and the raw vector otherwise
func (d Direction) Name() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("(%d,%d)", d.DRow, d.DCol)
}

// DirectionBetween returns the unit step that leads from a towards b.
// Each component is clamped to -1, 0 or 1.
func DirectionBetween(a, b Cell) Direction {
	return Direction{DRow: sign(b.Row - a.Row), DCol: sign(b.Col - a.Col)}
}

// TagKind enumerates what a grid cell shows
type TagKind int

const (
	TagEmpty TagKind = iota
	TagPlayer
	TagTreasure
	TagObstacle
	TagTrap
	TagReward
)

func (k TagKind) String() string {
	switch k {
	case TagEmpty:
		return "empty"
	case TagPlayer:
		return "player"
	case TagTreasure:
		return "treasure"
	case TagObstacle:
		return "obstacle"
	case TagTrap:
		return "trap"
	case TagReward:
		return "reward"
	}
	return fmt.Sprintf("TagKind(%d)", int(k))
}

// Tag is the symbolic occupancy of a grid cell. Trap is only meaningful for
// TagTrap cells and Reward only for TagReward cells.
type Tag struct {
	Kind   TagKind
	Trap   TrapKind
	Reward RewardKind
}

var (
	EmptyTag    = Tag{Kind: TagEmpty}
	PlayerTag   = Tag{Kind: TagPlayer}
	TreasureTag = Tag{Kind: TagTreasure}
	ObstacleTag = Tag{Kind: TagObstacle}
)

// TrapTag returns the tag for a trap of kind k
func TrapTag(k TrapKind) Tag {
	return Tag{Kind: TagTrap, Trap: k}
}

// RewardTag returns the tag for a reward of kind k
func RewardTag(k RewardKind) Tag {
	return Tag{Kind: TagReward, Reward: k}
}

// Symbol returns the two-character console symbol for the tag
func (t Tag) Symbol() string {
	switch t.Kind {
	case TagEmpty:
		return "EE"
	case TagPlayer:
		return "PS"
	case TagTreasure:
		return "XX"
	case TagObstacle:
		return "OO"
	case TagTrap:
		return t.Trap.Symbol()
	case TagReward:
		return t.Reward.Symbol()
	}
	return "??"
}

func (t Tag) String() string {
	switch t.Kind {
	case TagTrap:
		return "trap:" + t.Trap.String()
	case TagReward:
		return "reward:" + t.Reward.String()
	}
	return t.Kind.String()
}

// MarshalText encodes the tag as its console symbol
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.Symbol()), nil
}

// TrapKind enumerates trap effects
type TrapKind int

const (
	SlowEnergy TrapKind = iota + 1
	SlowSpeed
	Pushback
	ClearTreasures
)

var trapNames = map[TrapKind]string{
	SlowEnergy:     "slow_energy",
	SlowSpeed:      "slow_speed",
	Pushback:       "pushback",
	ClearTreasures: "clear_treasures",
}

var trapSymbols = map[TrapKind]string{
	SlowEnergy:     "T1",
	SlowSpeed:      "T2",
	Pushback:       "T3",
	ClearTreasures: "T4",
}

// TrapKinds lists every trap kind in symbol order
var TrapKinds = []TrapKind{SlowEnergy, SlowSpeed, Pushback, ClearTreasures}

func (k TrapKind) String() string {
	if name, ok := trapNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TrapKind(%d)", int(k))
}

// Symbol returns T1..T4
func (k TrapKind) Symbol() string {
	if sym, ok := trapSymbols[k]; ok {
		return sym
	}
	return "T?"
}

// Valid reports whether k is a known trap kind
func (k TrapKind) Valid() bool {
	_, ok := trapNames[k]
	return ok
}

func (k TrapKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown trap kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts either the name ("pushback") or the symbol ("T3")
func (k *TrapKind) UnmarshalText(text []byte) error {
	s := string(text)
	for kind, name := range trapNames {
		if s == name || s == trapSymbols[kind] {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown trap type %q", s)
}

// RewardKind enumerates reward effects
type RewardKind int

const (
	HalveEnergyCost RewardKind = iota + 1
	DoubleSpeed
)

var rewardNames = map[RewardKind]string{
	HalveEnergyCost: "halve_energy_cost",
	DoubleSpeed:     "double_speed",
}

var rewardSymbols = map[RewardKind]string{
	HalveEnergyCost: "R1",
	DoubleSpeed:     "R2",
}

// RewardKinds lists every reward kind in symbol order
var RewardKinds = []RewardKind{HalveEnergyCost, DoubleSpeed}

func (k RewardKind) String() string {
	if name, ok := rewardNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RewardKind(%d)", int(k))
}

// Symbol returns R1 or R2
func (k RewardKind) Symbol() string {
	if sym, ok := rewardSymbols[k]; ok {
		return sym
	}
	return "R?"
}

// Valid reports whether k is a known reward kind
func (k RewardKind) Valid() bool {
	_, ok := rewardNames[k]
	return ok
}

func (k RewardKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown reward kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts either the name ("double_speed") or the symbol ("R2")
func (k *RewardKind) UnmarshalText(text []byte) error {
	s := string(text)
	for kind, name := range rewardNames {
		if s == name || s == rewardSymbols[kind] {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown reward type %q", s)
}

// Trap is a static, repeatable effect location
type Trap struct {
	Cell `yaml:",inline"`
	Type TrapKind `json:"type" yaml:"type"`
}

// Reward is an effect location consumed on first pickup
type Reward struct {
	Cell `yaml:",inline"`
	Type RewardKind `json:"type" yaml:"type"`
}
