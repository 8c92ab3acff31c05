// Package region classifies license-plate office names by prefecture and
// macro-region.
package region

import (
	"sort"

	"go-peopleflow/internal/model"
)

// Unknown is returned for offices that are not in the table.
const Unknown = "不明"

// Level selects the granularity of a Rollup.
type Level string

const (
	LevelPrefecture Level = model.BreakdownPrefecture
	LevelRegion     Level = model.BreakdownRegion
)

type prefecture struct {
	name    string
	region  string
	offices []string
}

// prefectures is ordered north to south by the standard prefecture code.
var prefectures = []prefecture{
	{"北海道", "北海道", []string{"札幌", "函館", "旭川", "室蘭", "釧路", "帯広", "北見", "苫小牧", "知床"}},

	{"青森県", "東北", []string{"青森", "八戸"}},
	{"岩手県", "東北", []string{"岩手", "盛岡", "平泉"}},
	{"宮城県", "東北", []string{"宮城", "仙台"}},
	{"秋田県", "東北", []string{"秋田"}},
	{"山形県", "東北", []string{"山形", "庄内"}},
	{"福島県", "東北", []string{"福島", "会津", "郡山", "白河", "いわき"}},

	{"茨城県", "関東", []string{"水戸", "土浦", "つくば"}},
	{"栃木県", "関東", []string{"宇都宮", "とちぎ", "那須"}},
	{"群馬県", "関東", []string{"群馬", "前橋", "高崎"}},
	{"埼玉県", "関東", []string{"大宮", "川口", "所沢", "川越", "熊谷", "春日部", "越谷"}},
	{"千葉県", "関東", []string{"千葉", "成田", "習志野", "市川", "船橋", "袖ヶ浦", "市原", "野田", "柏", "松戸"}},
	{"東京都", "関東", []string{"品川", "世田谷", "練馬", "杉並", "板橋", "足立", "江東", "葛飾", "八王子", "多摩"}},
	{"神奈川県", "関東", []string{"横浜", "川崎", "湘南", "相模"}},

	{"新潟県", "甲信越", []string{"新潟", "長岡", "上越"}},
	{"山梨県", "甲信越", []string{"山梨"}},
	{"長野県", "甲信越", []string{"長野", "松本", "諏訪"}},

	{"富山県", "北陸", []string{"富山"}},
	{"石川県", "北陸", []string{"石川", "金沢"}},
	{"福井県", "北陸", []string{"福井"}},

	{"岐阜県", "東海", []string{"岐阜", "飛騨"}},
	{"静岡県", "東海", []string{"静岡", "浜松", "沼津", "伊豆", "富士山"}},
	{"愛知県", "東海", []string{"名古屋", "豊橋", "三河", "岡崎", "豊田", "尾張小牧", "一宮", "春日井"}},
	{"三重県", "東海", []string{"三重", "鈴鹿", "四日市", "伊勢志摩"}},

	{"滋賀県", "近畿", []string{"滋賀"}},
	{"京都府", "近畿", []string{"京都"}},
	{"大阪府", "近畿", []string{"なにわ", "大阪", "和泉", "堺"}},
	{"兵庫県", "近畿", []string{"神戸", "姫路"}},
	{"奈良県", "近畿", []string{"奈良", "飛鳥"}},
	{"和歌山県", "近畿", []string{"和歌山"}},

	{"鳥取県", "中国", []string{"鳥取"}},
	{"島根県", "中国", []string{"島根"}},
	{"岡山県", "中国", []string{"岡山", "倉敷"}},
	{"広島県", "中国", []string{"広島", "福山"}},
	{"山口県", "中国", []string{"山口", "下関"}},

	{"徳島県", "四国", []string{"徳島"}},
	{"香川県", "四国", []string{"香川", "高松"}},
	{"愛媛県", "四国", []string{"愛媛"}},
	{"高知県", "四国", []string{"高知"}},

	{"福岡県", "九州", []string{"福岡", "北九州", "久留米", "筑豊"}},
	{"佐賀県", "九州", []string{"佐賀"}},
	{"長崎県", "九州", []string{"長崎", "佐世保"}},
	{"熊本県", "九州", []string{"熊本"}},
	{"大分県", "九州", []string{"大分"}},
	{"宮崎県", "九州", []string{"宮崎"}},
	{"鹿児島県", "九州", []string{"鹿児島", "奄美"}},

	{"沖縄県", "沖縄", []string{"沖縄"}},
}

var (
	byOffice = make(map[string]*prefecture)
	offices  []string
	regions  []string
)

func init() {
	seen := make(map[string]bool)
	for i := range prefectures {
		p := &prefectures[i]
		for _, o := range p.offices {
			byOffice[o] = p
			offices = append(offices, o)
		}
		if !seen[p.region] {
			seen[p.region] = true
			regions = append(regions, p.region)
		}
	}
}

// Classification is the full answer for one office.
type Classification struct {
	Office     string `json:"office"`
	Prefecture string `json:"prefecture"`
	Region     string `json:"region"`
	Known      bool   `json:"known"`
}

// Classify resolves office to its prefecture and macro-region.
func Classify(office string) Classification {
	p, ok := byOffice[office]
	if !ok {
		return Classification{Office: office, Prefecture: Unknown, Region: Unknown}
	}
	return Classification{Office: office, Prefecture: p.name, Region: p.region, Known: true}
}

// PrefectureOf returns the prefecture of a plate office, or Unknown.
func PrefectureOf(office string) string {
	return Classify(office).Prefecture
}

// MacroRegionOf returns the macro-region of a plate office, or Unknown.
func MacroRegionOf(office string) string {
	return Classify(office).Region
}

// IsOffice reports whether name is a known plate office.
func IsOffice(name string) bool {
	_, ok := byOffice[name]
	return ok
}

// Offices lists every known plate office in table order.
func Offices() []string {
	return append([]string(nil), offices...)
}

// Prefectures lists the 47 prefectures in table order.
func Prefectures() []string {
	out := make([]string, len(prefectures))
	for i, p := range prefectures {
		out[i] = p.name
	}
	return out
}

// MacroRegions lists the macro-regions in table order.
func MacroRegions() []string {
	return append([]string(nil), regions...)
}

// Rollup sums the plate office columns of rows into prefecture or
// macro-region shares, largest first. Columns that are not plate offices
// are ignored, apart from a column named Unknown.
func Rollup(rows []model.Row, level Level) []model.Share {
	totals := make(map[string]int)
	for _, r := range rows {
		for col, v := range r.Counts {
			var name string
			switch {
			case col == Unknown:
				name = Unknown
			case !IsOffice(col):
				continue
			case level == LevelRegion:
				name = MacroRegionOf(col)
			default:
				name = PrefectureOf(col)
			}
			totals[name] += v
		}
	}

	out := make([]model.Share, 0, len(totals))
	for name, n := range totals {
		out = append(out, model.Share{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
