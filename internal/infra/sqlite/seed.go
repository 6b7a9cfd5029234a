package sqlite

import "github.com/pzyt/crystal-healing/internal/domain"

// ─── Catalog Seed ───────────────────────────────────────────────────────────

// catalogSeed is the built-in crystal catalog.
var catalogSeed = []domain.Crystal{
	{
		Name:              "Amethyst",
		ChineseName:       "紫水晶",
		Category:          "石英类",
		Color:             "紫色",
		Elements:          []domain.Element{domain.Water},
		HealingProperties: []string{"净化意念", "增强直觉", "平静心灵", "改善睡眠"},
		SuitableFor:       []string{"健康运", "感情运", "灵性提升"},
		ImageURL:          "/images/purple_amethyst_raw_crystal_stone_display.jpg",
		Price:             88.00,
		Description:       "紫水晶被誉为“智慧之石”，能够净化心灵，增强直觉力，帮助保持内心平静。",
	},
	{
		Name:              "Rose Quartz",
		ChineseName:       "粉水晶",
		Category:          "石英类",
		Color:             "粉色",
		Elements:          []domain.Element{domain.Earth},
		HealingProperties: []string{"增进爱情", "治愈心灵创伤", "提升自信", "缓解情绪压力"},
		SuitableFor:       []string{"感情运", "人际关系", "心理健康"},
		ImageURL:          "/images/natural_raw_rose_quartz_pink_crystal.jpg",
		Price:             66.00,
		Description:       "粉水晶被称为“爱情之石”，能够吸引爱情，治愈心灵创伤，增强人际关系。",
	},
	{
		Name:              "Clear Quartz",
		ChineseName:       "白水晶",
		Category:          "石英类",
		Color:             "白色",
		Elements:          []domain.Element{domain.Metal},
		HealingProperties: []string{"放大能量", "净化磁场", "增强专注力", "促进治愈"},
		SuitableFor:       []string{"事业运", "健康运", "能量增强"},
		ImageURL:          "/images/natural_clear_quartz_crystal_cluster_white_background.jpg",
		Price:             55.00,
		Description:       "白水晶被誉为“水晶之王”，具有放大和净化能量的作用，可以增强其他水晶的能量。",
	},
	{
		Name:              "Citrine",
		ChineseName:       "黄水晶",
		Category:          "石英类",
		Color:             "黄色",
		Elements:          []domain.Element{domain.Earth},
		HealingProperties: []string{"招财进宝", "增强自信", "提升创造力", "带来欢乐"},
		SuitableFor:       []string{"财运", "事业运", "创业发展"},
		ImageURL:          "/images/golden_yellow_citrine_crystal_gemstone_wealth.jpg",
		Price:             99.00,
		Description:       "黄水晶被称为“商人之石”，具有强大的招财能量，能够吸引财富和成功。",
	},
	{
		Name:              "Green Aventurine",
		ChineseName:       "绿东陵石",
		Category:          "石英类",
		Color:             "绿色",
		Elements:          []domain.Element{domain.Wood},
		HealingProperties: []string{"平衡情绪", "增强领导力", "吸引好运", "促进成长"},
		SuitableFor:       []string{"事业运", "健康运", "人际关系"},
		ImageURL:          "/images/natural_raw_green_aventurine_crystal.jpg",
		Price:             77.00,
		Description:       "绿东陵石被誉为“机会之石”，能够带来好运和机会，特别适合创业者和投资者。",
	},
	{
		Name:              "Black Tourmaline",
		ChineseName:       "黑电气石",
		Category:          "电气石类",
		Color:             "黑色",
		Elements:          []domain.Element{domain.Water},
		HealingProperties: []string{"防护负能量", "增强安全感", "稳定情绪", "净化磁场"},
		SuitableFor:       []string{"健康运", "工作压力", "环境净化"},
		ImageURL:          "/images/black_tourmaline_raw_crystal_protection.jpg",
		Price:             88.00,
		Description:       "黑电气石被誉为“防护之石”，能够有效阻挡负能量和电磁辐射，保护佩带者的能量场。",
	},
	{
		Name:              "Moonstone",
		ChineseName:       "月光石",
		Category:          "长石类",
		Color:             "白色",
		Elements:          []domain.Element{domain.Water},
		HealingProperties: []string{"增强直觉", "平衡荷尔蒙", "提升女性魅力", "促进灵性成长"},
		SuitableFor:       []string{"感情运", "女性健康", "灵性发展"},
		ImageURL:          "/images/moonstone_polished_white_feldspar.jpg",
		Price:             108.00,
		Description:       "月光石被称为“女性之石”，能够平衡女性荷尔蒙，增强直觉力和灵性敏感度。",
	},
	{
		Name:              "Tiger Eye",
		ChineseName:       "虎眼石",
		Category:          "石英类",
		Color:             "黄棕色",
		Elements:          []domain.Element{domain.Earth},
		HealingProperties: []string{"增强勇气", "提升专注力", "吸引财富", "平衡能量"},
		SuitableFor:       []string{"事业运", "财运", "领导力提升"},
		ImageURL:          "/images/tiger_eye_golden_brown_crystal.jpg",
		Price:             66.00,
		Description:       "虎眼石被誉为“勇气之石”，能够增强意志力和决断力，帮助佩带者克服困难。",
	},
}

// SeedCrystals inserts the built-in catalog, skipping entries that already
// exist. Safe to run on every startup. Returns the number inserted.
func (db *DB) SeedCrystals() (int, error) {
	inserted := 0
	for _, c := range catalogSeed {
		ok, err := db.InsertCrystal(c)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}
