package models

// Order represents a purchased bundle ("order") from the catalog API.
// Only the fields this core reads are declared.
type Order struct {
	GameKey     string           `json:"gamekey"`
	Created     string           `json:"created"`
	Product     OrderProduct     `json:"product"`
	TpkdDict    TpkdDict         `json:"tpkd_dict"`
	Subproducts []SubproductData `json:"subproducts"`
}

// OrderProduct describes the bundle itself (not its contents).
type OrderProduct struct {
	Category    string `json:"category"`
	MachineName string `json:"machine_name"`
	HumanName   string `json:"human_name"`
}

// TpkdDict wraps the third-party key list of an order.
type TpkdDict struct {
	AllTpks []KeyData `json:"all_tpks"`
}

// KeyData is a redeemable third-party key record inside an order.
// RedeemedKeyVal is empty until the user reveals the key on the website.
type KeyData struct {
	MachineName      string `json:"machine_name"`
	HumanName        string `json:"human_name"`
	KeyType          string `json:"key_type"`
	KeyTypeHumanName string `json:"key_type_human_name"`
	RedeemedKeyVal   string `json:"redeemed_key_val"`
}

// SubproductData is a downloadable product record inside an order.
type SubproductData struct {
	MachineName string     `json:"machine_name"`
	HumanName   string     `json:"human_name"`
	Downloads   []Download `json:"downloads"`
}

// Download groups the download structs of a subproduct for one platform.
type Download struct {
	PlatformName    string           `json:"platform"`
	DownloadStructs []DownloadStruct `json:"download_struct"`
}

// DownloadStruct is a single downloadable artifact variant (e.g. 32/64-bit).
type DownloadStruct struct {
	Name     string      `json:"name"`
	FileSize int64       `json:"file_size"`
	URL      DownloadURL `json:"url"`
}

// DownloadURL carries the links of a download struct.
type DownloadURL struct {
	Web        string `json:"web"`
	BitTorrent string `json:"bittorrent"`
}

// TroveData is a monthly-subscription catalog entry. Trove downloads carry no
// usable web URL; a signed, time-limited URL must be requested per download.
type TroveData struct {
	MachineName string                   `json:"machine_name"`
	HumanName   string                   `json:"human-name"`
	Downloads   map[string]TroveDownload `json:"downloads"`
}

// TroveDownload identifies one platform's artifact of a trove entry.
type TroveDownload struct {
	MachineName string      `json:"machine_name"`
	URL         DownloadURL `json:"url"`
}
