package model

// BloodGroup ABO/Rh 血型
type BloodGroup string

const (
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
)

// BloodGroups 与登记表单顺序一致
var BloodGroups = []BloodGroup{
	BloodGroupOPos, BloodGroupONeg, BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg, BloodGroupABPos, BloodGroupABNeg,
}

func (b BloodGroup) Valid() bool {
	for _, g := range BloodGroups {
		if g == b {
			return true
		}
	}
	return false
}

// Compatibility 输血相容性
type Compatibility struct {
	BloodGroup     BloodGroup   `json:"blood_group"`
	CanDonateTo    []BloodGroup `json:"can_donate_to"`
	CanReceiveFrom []BloodGroup `json:"can_receive_from"`
}

var compatibilityChart = map[BloodGroup]Compatibility{
	BloodGroupOPos: {
		CanDonateTo:    []BloodGroup{BloodGroupOPos, BloodGroupAPos, BloodGroupBPos, BloodGroupABPos},
		CanReceiveFrom: []BloodGroup{BloodGroupOPos, BloodGroupONeg},
	},
	BloodGroupONeg: {
		CanDonateTo:    BloodGroups,
		CanReceiveFrom: []BloodGroup{BloodGroupONeg},
	},
	BloodGroupAPos: {
		CanDonateTo:    []BloodGroup{BloodGroupAPos, BloodGroupABPos},
		CanReceiveFrom: []BloodGroup{BloodGroupOPos, BloodGroupONeg, BloodGroupAPos, BloodGroupANeg},
	},
	BloodGroupANeg: {
		CanDonateTo:    []BloodGroup{BloodGroupAPos, BloodGroupANeg, BloodGroupABPos, BloodGroupABNeg},
		CanReceiveFrom: []BloodGroup{BloodGroupONeg, BloodGroupANeg},
	},
	BloodGroupBPos: {
		CanDonateTo:    []BloodGroup{BloodGroupBPos, BloodGroupABPos},
		CanReceiveFrom: []BloodGroup{BloodGroupOPos, BloodGroupONeg, BloodGroupBPos, BloodGroupBNeg},
	},
	BloodGroupBNeg: {
		CanDonateTo:    []BloodGroup{BloodGroupBPos, BloodGroupBNeg, BloodGroupABPos, BloodGroupABNeg},
		CanReceiveFrom: []BloodGroup{BloodGroupONeg, BloodGroupBNeg},
	},
	BloodGroupABPos: {
		CanDonateTo:    []BloodGroup{BloodGroupABPos},
		CanReceiveFrom: BloodGroups,
	},
	BloodGroupABNeg: {
		CanDonateTo:    []BloodGroup{BloodGroupABPos, BloodGroupABNeg},
		CanReceiveFrom: []BloodGroup{BloodGroupONeg, BloodGroupANeg, BloodGroupBNeg, BloodGroupABNeg},
	},
}

// CompatibilityOf 查询相容性表；分发时的收件人解析不使用该表，只做血型精确匹配
func CompatibilityOf(b BloodGroup) (Compatibility, bool) {
	c, ok := compatibilityChart[b]
	if !ok {
		return Compatibility{}, false
	}
	c.BloodGroup = b
	return c, true
}

// Districts 特伦甘纳邦行政区
var Districts = []string{
	"Adilabad", "Bhadradri Kothagudem", "Hyderabad", "Jagtial", "Jangaon",
	"Jayashankar Bhupalpally", "Jogulamba Gadwal", "Kamareddy", "Karimnagar",
	"Khammam", "Komaram Bheem Asifabad", "Mahabubabad", "Mahabubnagar",
	"Mancherial", "Medak", "Medchal-Malkajgiri", "Mulugu", "Nagarkurnool",
	"Nalgonda", "Narayanpet", "Nirmal", "Nizamabad", "Peddapalli",
	"Rajanna Sircilla", "Rangareddy", "Sangareddy", "Siddipet", "Suryapet",
	"Vikarabad", "Wanaparthy", "Warangal Urban", "Warangal Rural", "Yadadri Bhuvanagiri",
}

func ValidDistrict(d string) bool {
	for _, v := range Districts {
		if v == d {
			return true
		}
	}
	return false
}

// Urgency 紧急程度
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}
