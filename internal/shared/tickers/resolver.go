// Package tickers はユーザー入力の銘柄コードをyfinance互換のプロバイダーティッカーへ変換します。
package tickers

import (
	"strings"
	"unicode"

	"bb_monitor/internal/shared/marketcal"
)

// usAliases は米国銘柄のうち、公開コードとプロバイダーシンボルが異なるものの対応表です。
// 種類株のセパレーター（ドット→ハイフン）と社名変更によるリネームをカバーします。
var usAliases = map[string]string{
	"BRK.A": "BRK-A",
	"BRK.B": "BRK-B",
	"BF.A":  "BF-A",
	"BF.B":  "BF-B",
	"FB":    "META",
}

// stripKRSuffix は韓国コードから取引所サフィックスを除去します。
func stripKRSuffix(code string) string {
	code = strings.ReplaceAll(code, ".KS", "")
	return strings.ReplaceAll(code, ".KQ", "")
}

// Resolve はコード + 市場からプロバイダーティッカー文字列を生成します。
//
//   - US: 大文字化し、エイリアス表に該当すれば置換
//   - KR: サフィックスを除去し、6桁にゼロパディングして ".KS" を付与
//
// 決定的でI/Oを行わず、不正な入力はそのまま通します。
func Resolve(code string, market marketcal.Market) string {
	if market == marketcal.US {
		upper := strings.ToUpper(code)
		if alias, ok := usAliases[upper]; ok {
			return alias
		}
		return upper
	}
	clean := stripKRSuffix(code)
	for len(clean) < 6 {
		clean = "0" + clean
	}
	return clean + ".KS"
}

// ResolveMarket はコードのみから市場を推定します。数字のみ → KR、それ以外 → US。
func ResolveMarket(code string) marketcal.Market {
	clean := stripKRSuffix(strings.ToUpper(code))
	if clean == "" {
		return marketcal.US
	}
	for _, r := range clean {
		if !unicode.IsDigit(r) {
			return marketcal.US
		}
	}
	return marketcal.KR
}

// CleanCode はティッカーからレスポンス表示用のコードを復元します。
// KRは6桁ゼロパディング、USはそのまま返します。
func CleanCode(ticker string, market marketcal.Market) string {
	code := stripKRSuffix(ticker)
	if market == marketcal.KR {
		for len(code) < 6 {
			code = "0" + code
		}
	}
	return code
}
