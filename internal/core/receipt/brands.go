package receipt

// DefaultBrandTokens 常見的零售通路與品牌名稱，擷取時從品名移除
var DefaultBrandTokens = []string{
	"이마트", "emart", "e-mart", "노브랜드", "no brand", "nobrand", "피코크", "peacock",
	"홈플러스", "homeplus", "롯데마트", "lotte", "코스트코", "costco", "kirkland", "커클랜드",
	"cj", "백설", "비비고", "오뚜기", "풀무원", "농심", "동원", "청정원",
	"해태", "샘표", "곰곰", "쿠팡", "마켓컬리", "컬리", "gs25", "cu", "세븐일레븐",
}
