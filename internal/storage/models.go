package storage

import (
	"time"
)

type Earning struct {
	ID             ID        `gorm:"primaryKey" json:"id"`
	Date           string    `gorm:"index;not null" json:"date"`
	PlatformName   string    `gorm:"index" json:"platformName"`
	TokenName      string    `json:"tokenName"`
	AmountToken    float64   `json:"amountToken"`
	AmountUSDT     float64   `gorm:"column:amount_usdt" json:"amountUSDT"`
	Category       string    `gorm:"index" json:"category"`
	Notes          string    `json:"notes"`
	TargetAchieved bool      `json:"targetAchieved"`
	Timestamp      time.Time `json:"timestamp"`
}

func (Earning) TableName() string { return string(Earnings) }

type Trade struct {
	ID         ID        `gorm:"primaryKey" json:"id"`
	TradeID    string    `json:"tradeId,omitempty"`
	Date       string    `gorm:"index;not null" json:"date"`
	Exchange   string    `gorm:"index" json:"exchange"`
	Pair       string    `json:"pair"`
	TradeType  string    `gorm:"index" json:"tradeType"` // Spot or Futures
	Direction  string    `json:"direction"`              // Long or Short
	EntryPrice float64   `json:"entryPrice"`
	ExitPrice  float64   `json:"exitPrice"`
	Size       float64   `json:"size"`
	PNLUSDT    float64   `gorm:"column:pnl_usdt" json:"PNL_USDT"`
	Notes      string    `json:"notes"`
	Timestamp  time.Time `json:"timestamp"`
}

func (Trade) TableName() string { return string(Trades) }

type Activity struct {
	ID           ID        `gorm:"primaryKey" json:"id"`
	Date         string    `gorm:"index;not null" json:"date"`
	PlatformName string    `gorm:"index" json:"platformName"`
	ActivityType string    `json:"activityType"`
	Category     string    `gorm:"index" json:"category"`
	AmountUSDT   float64   `gorm:"column:amount_usdt" json:"amountUSDT"`
	Notes        string    `json:"notes"`
	Timestamp    time.Time `json:"timestamp"`
}

func (Activity) TableName() string { return string(Activities) }

type Miner struct {
	ID              ID        `gorm:"primaryKey" json:"id"`
	MinerName       string    `gorm:"index" json:"minerName"`
	Status          string    `gorm:"index" json:"status"` // active or inactive
	DailyMiningUSDT float64   `gorm:"column:daily_mining_usdt" json:"dailyMiningUSDT"`
	Notes           string    `json:"notes"`
	Timestamp       time.Time `json:"timestamp"`
}

func (Miner) TableName() string { return string(Miners) }

type Task struct {
	ID           ID         `gorm:"primaryKey" json:"id"`
	PlatformName string     `gorm:"index" json:"platformName"`
	Title        string     `json:"title"`
	Frequency    string     `gorm:"index" json:"frequency"` // Daily, Weekly, Once
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
	LastReset    *time.Time `json:"lastReset,omitempty"`
}

func (Task) TableName() string { return string(Tasks) }

type TargetDays struct {
	Target    float64 `json:"target"`
	Days      int     `json:"days"`
	Reachable bool    `json:"reachable"`
}

type Projection struct {
	ID              ID           `gorm:"primaryKey" json:"id"`
	Date            string       `gorm:"index;not null" json:"date"`
	DailyAvg        float64      `json:"dailyAvg"`
	WeekProjection  float64      `json:"weekProjection"`
	MonthProjection float64      `json:"monthProjection"`
	DaysToTarget    []TargetDays `gorm:"serializer:json" json:"daysToTarget"`
	Timestamp       time.Time    `json:"timestamp"`
}

func (Projection) TableName() string { return string(Projections) }

// Setting is one row of the key/value settings table. Value holds JSON.
type Setting struct {
	Key       string `gorm:"column:setting_key;primaryKey"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (Setting) TableName() string { return string(Settings) }

// HistoryRecord is a persisted portfolio history point.
type HistoryRecord struct {
	ID    uint      `gorm:"primarykey"`
	Date  time.Time `gorm:"index"`
	Value float64
}

func (HistoryRecord) TableName() string { return "portfolio_history" }

func (r *Earning) Collection() Collection    { return Earnings }
func (r *Earning) RecordID() ID              { return r.ID }
func (r *Earning) SetRecordID(id ID)         { r.ID = id }
func (r *Earning) RecordDate() string        { return r.Date }
func (r *Trade) Collection() Collection      { return Trades }
func (r *Trade) RecordID() ID                { return r.ID }
func (r *Trade) SetRecordID(id ID)           { r.ID = id }
func (r *Trade) RecordDate() string          { return r.Date }
func (r *Activity) Collection() Collection   { return Activities }
func (r *Activity) RecordID() ID             { return r.ID }
func (r *Activity) SetRecordID(id ID)        { r.ID = id }
func (r *Activity) RecordDate() string       { return r.Date }
func (r *Miner) Collection() Collection      { return Miners }
func (r *Miner) RecordID() ID                { return r.ID }
func (r *Miner) SetRecordID(id ID)           { r.ID = id }
func (r *Task) Collection() Collection       { return Tasks }
func (r *Task) RecordID() ID                 { return r.ID }
func (r *Task) SetRecordID(id ID)            { r.ID = id }
func (r *Projection) Collection() Collection { return Projections }
func (r *Projection) RecordID() ID           { return r.ID }
func (r *Projection) SetRecordID(id ID)      { r.ID = id }
func (r *Projection) RecordDate() string     { return r.Date }
