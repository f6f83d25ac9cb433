package dialogue

import (
	"fmt"
	"strings"
)

// Keywords recognised in any mode.
const (
	KeywordQuiz       = "理財測驗"
	KeywordConvert    = "匯率轉換"
	KeywordStockMenu  = "股票查詢"
	KeywordStockInput = "股票資訊"
	KeywordNews       = "財經新聞"
	KeywordTip        = "理財小知識"
	KeywordRates      = "查看匯率"
)

// Postback keys.
const (
	PostbackQuiz         = "quiz"
	PostbackFromCurrency = "from_currency"
	PostbackToCurrency   = "to_currency"
	PostbackSay          = "say"
)

const (
	msgMainMenu            = "請選擇功能"
	msgAmountPrompt        = "請輸入金額，例如：100"
	msgAmountRetry         = "請輸入有效的金額，例如：100"
	msgChooseFrom          = "請選擇來源貨幣"
	msgChooseTo            = "請選擇目標貨幣"
	msgUnsupportedCurrency = "Unsupported currency"
	msgCorrect             = "答對了！"
	msgQuizNotStarted      = "請輸入 '理財測驗' 來開始測驗。"
	msgStockMenu           = "請選擇或輸入股票代碼，例如：AAPL"
	msgStockInput          = "請輸入股票代碼，例如：AAPL"
	msgNewsFailed          = "抱歉，無法獲取財經新聞。"
	msgNoTips              = "目前沒有理財小知識。"
	msgRatesHeader         = "匯率表："
	msgNoRates             = "目前沒有匯率資料。"
	// MsgStoreUnavailable is sent when conversation state cannot be read or written.
	MsgStoreUnavailable = "系統忙碌中，請稍後再試。"
)

var practiceNumerals = []string{"一", "二", "三", "四", "五", "六", "七", "八", "九", "十"}

// practiceIndex maps 第一題..第十題 to a zero-based question index.
func practiceIndex(text string) (int, bool) {
	if !strings.HasPrefix(text, "第") || !strings.HasSuffix(text, "題") {
		return 0, false
	}
	num := strings.TrimSuffix(strings.TrimPrefix(text, "第"), "題")
	for i, n := range practiceNumerals {
		if n == num {
			return i, true
		}
	}
	return 0, false
}

func mainMenu() Reply {
	return MenuPrompt(msgMainMenu, []Choice{
		{Label: KeywordQuiz},
		{Label: KeywordConvert},
		{Label: KeywordNews},
		{Label: KeywordStockMenu},
		{Label: KeywordTip},
	})
}

func stockMenu() Reply {
	return MenuPrompt(msgStockMenu, []Choice{
		{Label: "Apple", Text: "AAPL"},
		{Label: "Google", Text: "GOOGL"},
		{Label: "Microsoft", Text: "MSFT"},
	})
}

func wrongAnswer(answer, explanation string) string {
	msg := "答錯了，正確答案是：" + answer
	if explanation != "" {
		msg += "\n" + explanation
	}
	return msg
}

func quizFinished(score int) string {
	return fmt.Sprintf("測驗結束！你總共答對了 %d 題。", score)
}

func conversionResult(amount, from, result, to string) string {
	return fmt.Sprintf("%s %s is equal to %s %s", amount, from, result, to)
}

func stockError(err error) string {
	return "獲取股票資訊時出錯: " + err.Error()
}

func newsLinks(links []string) string {
	return "最新的財經新聞：\n" + strings.Join(links, "\n")
}
