package models

// Policy types offered in the catalog
const (
	PolicyTypeCrop         = "crop"
	PolicyTypeLivestock    = "livestock"
	PolicyTypeWeatherIndex = "weather_index"
	PolicyTypeEquipment    = "equipment"
	PolicyTypeGreenhouse   = "greenhouse"
	PolicyTypePoultry      = "poultry"
	PolicyTypeAquaculture  = "aquaculture"
	PolicyTypeStorage      = "storage"
)

// Policy represents an insurance product in the catalog
type Policy struct {
	BaseModel
	Name        string `json:"name" gorm:"not null;size:100"`
	PolicyType  string `json:"policy_type" gorm:"not null;size:20;index"`
	Description string `json:"description" gorm:"type:text"`
	Coverage    string `json:"coverage" gorm:"type:text"`
	Exclusions  string `json:"exclusions,omitempty" gorm:"type:text"`

	// Premium details. BasePremium is a flat amount in KES,
	// PremiumRate a percentage of the sum insured.
	BasePremium float64 `json:"base_premium" gorm:"default:1000"`
	PremiumRate float64 `json:"premium_rate" gorm:"default:5"`

	// Coverage limits
	MinSumInsured float64 `json:"min_sum_insured" gorm:"default:10000"`
	MaxSumInsured float64 `json:"max_sum_insured" gorm:"default:10000000"`

	// Policy terms
	DurationMonths    int `json:"duration_months" gorm:"default:12"`
	WaitingPeriodDays int `json:"waiting_period_days" gorm:"default:14"`

	IsActive bool `json:"is_active" gorm:"default:true"`
}
