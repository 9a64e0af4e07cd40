package catalog

import "github.com/example/topup-wallet-engine/internal/domain"

// Встроенные прайс-таблицы. Цены указаны в монетах витрины для региона таблицы.
var (
	doubleDiamondBR = Table{Game: domain.GameMLBB, Region: domain.RegionBR, Packages: map[string][]domain.LineItem{
		"55":  {li("22590", "39", "50+50 Diamonds")},
		"165": {li("22591", "116.9", "150+150 Diamonds")},
		"275": {li("22592", "187.5", "250+250 Diamonds")},
		"565": {li("22593", "385", "500+500 Diamonds")},
	}}
	mlbbBR = Table{Game: domain.GameMLBB, Region: domain.RegionBR, Packages: map[string][]domain.LineItem{
		"86":   {li("13", "61.5", "86 Diamonds")},
		"172":  {li("23", "122", "172 Diamonds")},
		"257":  {li("25", "177.5", "257 Diamonds")},
		"343":  {li("13", "61.5", "86 Diamonds"), li("25", "177.5", "257 Diamonds")},
		"429":  {li("23", "122", "172 Diamonds"), li("25", "177.5", "257 Diamonds")},
		"514":  {li("25", "177.5", "257 Diamonds"), li("25", "177.5", "257 Diamonds")},
		"600":  {li("13", "61.5", "86 Diamonds"), li("25", "177.5", "257 Diamonds"), li("25", "177.5", "257 Diamonds")},
		"706":  {li("26", "480", "706 Diamonds")},
		"878":  {li("23", "122", "172 Diamonds"), li("26", "480", "706 Diamonds")},
		"963":  {li("25", "177.5", "257 Diamonds"), li("26", "480", "706 Diamonds")},
		"1049": {li("13", "61.5", "86 Diamonds"), li("25", "177.5", "257 Diamonds"), li("26", "480", "706 Diamonds")},
		"1135": {li("23", "122", "172 Diamonds"), li("25", "177.5", "257 Diamonds"), li("26", "480", "706 Diamonds")},
		"1412": {li("26", "480", "706 Diamonds"), li("26", "480", "706 Diamonds")},
		"1584": {li("23", "122", "172 Diamonds"), li("26", "480", "706 Diamonds"), li("26", "480", "706 Diamonds")},
		"1755": {li("13", "61.5", "86 Diamonds"), li("25", "177.5", "257 Diamonds"), li("26", "480", "706 Diamonds"), li("26", "480", "706 Diamonds")},
		"2195": {li("27", "1453", "2195 Diamonds")},
		"2538": {li("13", "61.5", "86 Diamonds"), li("25", "177.5", "257 Diamonds"), li("27", "1453", "2195 Diamonds")},
		"2901": {li("27", "1453", "2195 Diamonds"), li("26", "480", "706 Diamonds")},
		"3244": {li("13", "61.5", "86 Diamonds"), li("25", "177.5", "257 Diamonds"), li("26", "480", "706 Diamonds"), li("27", "1453", "2195 Diamonds")},
		"3688": {li("28", "2424", "3688 Diamonds")},
		"5532": {li("29", "3660", "5532 Diamonds")},
		"9288": {li("30", "6079", "9288 Diamonds")},
		"meb":  {li("26556", "196.5", "Epic Monthly Package")},
		"tp":   {li("33", "402.5", "Twilight Passage")},
		"web":  {li("26555", "39", "Elite Weekly Package")},
		"wp":   {li("16642", "76", "Weekly Pass")},
		"wp2":  {li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass")},
		"wp3":  {li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass")},
		"wp4":  {li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass")},
		"wp5":  {li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass"), li("16642", "76", "Weekly Pass")},
	}}
	mlbbPH = Table{Game: domain.GameMLBB, Region: domain.RegionPH, Packages: map[string][]domain.LineItem{
		"11":  {li("212", "9.5", "11 Diamonds")},
		"22":  {li("213", "19", "22 Diamonds")},
		"56":  {li("214", "47.5", "56 Diamonds")},
		"112": {li("214", "47.5", "56 Diamonds"), li("214", "47.5", "56 Diamonds")},
		"pwp": {li("16641", "95", "Weekly Pass")},
	}}
	mccBR = Table{Game: domain.GameMCC, Region: domain.RegionBR, Packages: map[string][]domain.LineItem{
		"86":   {li("23825", "62.5", "86 Diamonds")},
		"172":  {li("23826", "125", "172 Diamonds")},
		"257":  {li("23827", "187", "257 Diamonds")},
		"343":  {li("23828", "250", "343 Diamonds")},
		"429":  {li("23826", "122", "172 Diamonds"), li("23827", "187", "257 Diamonds")},
		"516":  {li("23829", "375", "516 Diamonds")},
		"600":  {li("23825", "62.5", "86 Diamonds"), li("23827", "187", "257 Diamonds"), li("23827", "177.5", "257 Diamonds")},
		"706":  {li("23830", "500", "706 Diamonds")},
		"878":  {li("23826", "125", "172 Diamonds"), li("23830", "500", "706 Diamonds")},
		"963":  {li("23827", "187", "257 Diamonds"), li("23830", "500", "706 Diamonds")},
		"1049": {li("23825", "62.5", "86 Diamonds"), li("23827", "187", "257 Diamonds"), li("23830", "500", "706 Diamonds")},
		"1135": {li("23826", "125", "172 Diamonds"), li("23827", "187", "257 Diamonds"), li("23830", "500", "706 Diamonds")},
		"1346": {li("23831", "937.5", "1346 Diamonds")},
		"1412": {li("23830", "500", "706 Diamonds"), li("23830", "500", "706 Diamonds")},
		"1584": {li("23826", "125", "172 Diamonds"), li("23830", "500", "706 Diamonds"), li("23830", "480", "706 Diamonds")},
		"1755": {li("23825", "62.5", "86 Diamonds"), li("23827", "187", "257 Diamonds"), li("23830", "500", "706 Diamonds"), li("23830", "500", "706 Diamonds")},
		"1825": {li("23832", "1250", "1825 Diamonds")},
		"2195": {li("23833", "1500", "2195 Diamonds")},
		"2538": {li("23825", "62.5", "86 Diamonds"), li("23827", "187", "257 Diamonds"), li("23833", "1500", "2195 Diamonds")},
		"2901": {li("23833", "1500", "2195 Diamonds"), li("23830", "500", "706 Diamonds")},
		"3244": {li("23825", "62.5", "86 Diamonds"), li("23827", "187", "257 Diamonds"), li("23830", "500", "706 Diamonds"), li("23833", "1500", "2195 Diamonds")},
		"3688": {li("23834", "2500", "3688 Diamonds")},
		"5532": {li("23835", "3750", "5532 Diamonds")},
		"9288": {li("23836", "6250", "9288 Diamonds")},
		"b150": {li("23838", "120", "150+150 Diamonds")},
		"b250": {li("23839", "200", "250+250 Diamonds")},
		"b50":  {li("23837", "40", "50+50 Diamonds")},
		"b500": {li("23840", "400", "500+500 Diamonds")},
		"wp":   {li("23841", "76", "Weekly Pass")},
		"wp2":  {li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass")},
		"wp3":  {li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass")},
		"wp4":  {li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass")},
		"wp5":  {li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass"), li("23841", "76", "Weekly Pass")},
	}}
)
