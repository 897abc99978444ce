package faucetcore

import "fmt"

// Locale selects the display language.
type Locale string

const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"
)

// ParseLocale maps free text to a supported locale, defaulting to zh.
func ParseLocale(s string) Locale {
	switch s {
	case "en", "EN", "en-US", "en_US":
		return LocaleEN
	}
	return LocaleZH
}

// Messages is the user-facing text catalog.
type Messages struct {
	ClaimableNow string
	Day, Hour    string
	Minute, Sec  string

	ConnectWallet       string
	ContractMissing     string
	BindTitle, BindBody string
	Loading             string
	PendingSignature    string
	WaitingConfirmation string
	ClaimFmt            string // amount, symbol
	WaitCooldown        string
	NextClaim           string
	LastClaim           string
	DonateFmt           string // amount, symbol
	DonateRange         string // min, max
	DonateTitle         string
	PoolBalance         string
	TotalClaimed        string
	UniqueUsers         string

	ClaimOKTitle, ClaimOKFmt     string
	ClaimFailTitle, ClaimFailMsg string
	TxFailTitle, TxFailMsg       string
	DonateOKTitle, DonateOKFmt   string
	DonateFailTitle, DonateFail  string
	InvalidTitle, InvalidBody    string
	Rejected                     string
}

var catalog = map[Locale]Messages{
	LocaleZH: {
		ClaimableNow: "现在可以领取",
		Day:          "天", Hour: "小时", Minute: "分钟", Sec: "秒",

		ConnectWallet:       "请先连接钱包",
		ContractMissing:     "水龙头合约尚未配置，请联系管理员。",
		BindTitle:           "需要绑定 X 账号",
		BindBody:            "请先在上方绑定您的 X 账号，然后就可以领取 MON 代币了！",
		Loading:             "加载用户信息...",
		PendingSignature:    "确认交易...",
		WaitingConfirmation: "等待确认...",
		ClaimFmt:            "领取 %s %s",
		WaitCooldown:        "等待冷却期结束",
		NextClaim:           "下次可领取时间",
		LastClaim:           "上次领取时间",
		DonateFmt:           "捐赠 %s %s",
		DonateRange:         "请输入 %s 到 %s 之间的有效金额",
		DonateTitle:         "支持水龙头",
		PoolBalance:         "水龙头余额",
		TotalClaimed:        "累计领取",
		UniqueUsers:         "领取人数",

		ClaimOKTitle: "领取成功！", ClaimOKFmt: "成功领取 %s %s 代币",
		ClaimFailTitle: "领取失败", ClaimFailMsg: "领取代币失败，请重试",
		TxFailTitle: "交易失败", TxFailMsg: "发起交易失败，请重试",
		DonateOKTitle: "捐款成功！", DonateOKFmt: "感谢您捐赠 %s %s 给水龙头！",
		DonateFailTitle: "捐款失败", DonateFail: "捐款失败，请重试",
		InvalidTitle: "无效金额", InvalidBody: "请输入有效的捐款金额",
		Rejected: "已取消签名",
	},
	LocaleEN: {
		ClaimableNow: "claimable now",
		Day:          "d", Hour: "h", Minute: "m", Sec: "s",

		ConnectWallet:       "Connect a wallet first",
		ContractMissing:     "The faucet contract is not configured, contact the operator.",
		BindTitle:           "X account binding required",
		BindBody:            "Bind your X account above, then you can claim MON.",
		Loading:             "Loading user info...",
		PendingSignature:    "Confirm in wallet...",
		WaitingConfirmation: "Waiting for confirmation...",
		ClaimFmt:            "Claim %s %s",
		WaitCooldown:        "Cooldown in progress",
		NextClaim:           "Next claim in",
		LastClaim:           "Last claim",
		DonateFmt:           "Donate %s %s",
		DonateRange:         "Enter an amount between %s and %s",
		DonateTitle:         "Support the faucet",
		PoolBalance:         "Faucet balance",
		TotalClaimed:        "Total claimed",
		UniqueUsers:         "Unique claimants",

		ClaimOKTitle: "Claimed!", ClaimOKFmt: "Received %s %s",
		ClaimFailTitle: "Claim failed", ClaimFailMsg: "Claim failed, please retry",
		TxFailTitle: "Transaction failed", TxFailMsg: "Could not send the transaction, please retry",
		DonateOKTitle: "Thank you!", DonateOKFmt: "You donated %s %s to the faucet",
		DonateFailTitle: "Donation failed", DonateFail: "Donation failed, please retry",
		InvalidTitle: "Invalid amount", InvalidBody: "Enter a valid donation amount",
		Rejected: "Signature cancelled",
	},
}

// MessagesFor returns the catalog for l (zh when unknown).
func MessagesFor(l Locale) Messages {
	if m, ok := catalog[l]; ok {
		return m
	}
	return catalog[LocaleZH]
}

func (m Messages) claimLabel(amount, symbol string) string {
	return fmt.Sprintf(m.ClaimFmt, amount, symbol)
}
