package dto

// FmtValue はYahooの {raw, fmt} 形式の数値フィールドです。欠損時はnullです。
type FmtValue struct {
	Raw *float64 `json:"raw"`
}

// QuoteSummaryResponse は /v10/finance/quoteSummary のレスポンスです。
// 使用するモジュールのフィールドのみ定義します。
type QuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price *struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
				Currency  string `json:"currency"`
			} `json:"price"`
			SummaryDetail *struct {
				TrailingPE    *FmtValue `json:"trailingPE"`
				ForwardPE     *FmtValue `json:"forwardPE"`
				DividendYield *FmtValue `json:"dividendYield"`
				Beta          *FmtValue `json:"beta"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics *struct {
				PriceToBook        *FmtValue `json:"priceToBook"`
				EnterpriseToEbitda *FmtValue `json:"enterpriseToEbitda"`
				TrailingEps        *FmtValue `json:"trailingEps"`
			} `json:"defaultKeyStatistics"`
			AssetProfile *struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}
