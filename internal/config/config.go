package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client. The portal rejects obviously
// non-browser agents, so the product token is appended to a browser string.
var UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36 Go-Payslip/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Payslip"
	AppID             = "com.github.tartampluch.go-payslip"
	KeyringService    = "com.github.tartampluch.go-payslip"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	OutputDir         = "output"
	DatasetFileName   = "年間サマリー_全期間.csv"
	TraceFileName     = "network_trace.log"
	DefaultEnvFile    = ".env"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for logs and the env file holding credentials.
	FilePermUserRW fs.FileMode = 0600

	// FilePermShared represents -rw-r--r--. Used for the dataset snapshot.
	FilePermShared fs.FileMode = 0644

	// DirPermUserRWX represents drwx------.
	DirPermUserRWX fs.FileMode = 0700

	// DirPermShared represents drwxr-xr-x.
	DirPermShared fs.FileMode = 0755

	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion  = "version"
	FlagDebug    = "debug"
	FlagYear     = "year"
	FlagFullScan = "full-scan"
	FlagRoot     = "root"
	FlagEnv      = "env"
	FlagID       = "id"
	FlagServe    = "serve"
	FlagPort     = "port"

	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescYear     = "Target calendar year (defaults to the current year)"
	FlagDescFullScan = "Scan every month since the service start instead of the target year window"
	FlagDescRoot     = "Project root; the dataset is kept under <root>/output"
	FlagDescEnv      = "Path of the env file holding settings and saved credentials"
	FlagDescID       = "Portal login ID (overrides the saved one)"
	FlagDescServe    = "Serve the dataset and calendar feed on localhost after syncing"
	FlagDescPort     = "Port for -serve"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Environment Settings
// -----------------------------------------------------------------------------

const (
	EnvBaseURL           = "PAYSLIP_BASE_URL"
	EnvCompanyCode       = "PAYSLIP_COMPANY_CODE"
	EnvCredentialBackend = "PAYSLIP_CREDENTIAL_BACKEND"
	EnvLanguage          = "PAYSLIP_LANG"
	EnvHTTPTimeout       = "PAYSLIP_HTTP_TIMEOUT"
	EnvPassword          = "PAYSLIP_PASSWORD"

	// Keys written by the credential store. Kept for compatibility with
	// env files produced by earlier installs.
	EnvStoredLoginID  = "MY_LOGIN_ID"
	EnvStoredPassword = "MY_PASSWORD"

	KeyringUserLoginID  = "login_id"
	KeyringUserPassword = "password"

	BackendEnvFile = "env"
	BackendKeyring = "keyring"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultBaseURL     = "https://meisai.palma-svc.co.jp/users"
	DefaultCompanyCode = "witesi"
	DefaultBackend     = BackendEnvFile
	DefaultLanguage    = "ja"
	DefaultPort        = "18081"

	// EraOffset converts a Reiwa era-year into a Gregorian year (era-year 1 = 2019).
	EraOffset = 2018
	EraMarker = "令和"

	// ServiceStartYear/Month anchor the full-scan window.
	ServiceStartYear  = 2019
	ServiceStartMonth = 1

	// IssueDay is the day of month from which the current month's payslip
	// is expected to be published.
	IssueDay = 12

	// RollingStartMonth is the month of the previous year where the
	// current-year window starts.
	RollingStartMonth = 3

	// FiscalStartMonth is the first month of a fiscal year (April).
	FiscalStartMonth = 4

	// MonthKeyLength is the rune length of "令和05年03月".
	MonthKeyLength = 8

	// Unavailable is how a missing figure is written to the dataset.
	Unavailable = "N/A"
)

// SupportedLanguages defines the available message catalogs.
var SupportedLanguages = []string{"ja", "en"}

// -----------------------------------------------------------------------------
// Dataset Columns
// -----------------------------------------------------------------------------

const (
	ColDateLabel          = "年月日"
	ColTotalPay           = "総支給額"
	ColNetPay             = "差引支給額"
	ColOvertimeHours      = "総時間外"
	ColLeaveConsumedHours = "有給消化時間"
	ColLeaveUsedDays      = "有給使用日数"
	ColLeaveRemainingDays = "有給残日数"

	// ColLegacyRemainingDays is the pre-rename header of ColLeaveRemainingDays.
	ColLegacyRemainingDays = "残有給日数"

	// LegacyDaySuffix was appended to day counts by older exports. The
	// detail page may also carry it.
	LegacyDaySuffix = "日"
	HourSuffix      = "時間"
	YenSuffix       = "円"
)

// DatasetHeader is the fixed column order of the dataset file.
var DatasetHeader = []string{
	ColDateLabel,
	ColTotalPay,
	ColNetPay,
	ColOvertimeHours,
	ColLeaveConsumedHours,
	ColLeaveUsedDays,
	ColLeaveRemainingDays,
}

// -----------------------------------------------------------------------------
// Portal Protocol
// -----------------------------------------------------------------------------

const (
	PathLogin       = "/Login.aspx"
	PathMenu        = "/PMenu.aspx"
	PathList        = "/PShowSB.aspx"
	PathDetail      = "/PShowSBDetail.aspx"
	PathLoginFailed = "PLoginErr"

	QueryCompany   = "c"
	QueryTimestamp = "timestamp"

	FieldViewState          = "__VIEWSTATE"
	FieldEventValidation    = "__EVENTVALIDATION"
	FieldViewStateGenerator = "__VIEWSTATEGENERATOR"
	FieldEventTarget        = "__EVENTTARGET"
	FieldEventArgument      = "__EVENTARGUMENT"
	FieldHidden1            = "HiddenField1"
	FieldCheckWidth         = "CheckWidth"
	FieldLoginID            = "txtLoginID"
	FieldLoginPW            = "txtLoginPW"
	FieldSubmit             = "cmdSubmit"

	ValueHidden1    = "JavaScript On!"
	ValueCheckWidth = "99999"
	ValueSubmit     = "ログイン"

	TargetShowSalary = "cmdShowSalary"
	TargetGoBack     = "cmdGoBack"
	TargetLogOut     = "cmdLogOut"

	ListTableID     = "tdb"
	DetailSectionID = "Html"

	// Detail page labels. The two leave-day labels use 有休 where every other
	// place (list, dataset) uses 有給.
	LabelTotalPay           = "総支給額"
	LabelNetPay             = "差引支給額"
	LabelOvertimeHours      = "総時間外"
	LabelLeaveConsumedHours = "有給消化時間"
	LabelLeaveUsedDays      = "有休使用日数"
	LabelLeaveRemainingDays = "有休残日数"

	AcceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"
	AcceptLanguage = "ja,en-US;q=0.9,en;q=0.8"
	MimeForm       = "application/x-www-form-urlencoded"

	// TraceValueLimit truncates view-state values in the network trace.
	TraceValueLimit = 50
)

// -----------------------------------------------------------------------------
// Credential Encryption
// -----------------------------------------------------------------------------

const (
	CipherTokenPrefix = "enc:v1:"
	CipherIterations  = 100000
	CipherKeyLength   = 32
	CipherSalt        = "q\x8a\x0e\x9b\xf6\x0c\x94\xa8\x8d\x1b\xd3\x99\xe3\x8f\x0b\x1d"
	CipherFallbackKey = "fallback-static-key-if-mac-fails"
)

// -----------------------------------------------------------------------------
// Calendar Feed
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Go Payslip//Feed//JA"
	ICalCalName = "給与明細"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "gopayslip"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	FormatUID          = "%04d%02d@%s"
	FormatFeedSummary  = "%s 差引支給額 %s円"
	FormatFeedLine     = "%s: %s"
	DefaultICalRefresh = 12 * time.Hour

	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 8 * 1024 * 1024 // 8MB per portal page
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"

	RouteFeed    = "/payslips.ics"
	RouteDataset = "/payslips.csv"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderAcceptLanguage  = "Accept-Language"
	HeaderOrigin          = "Origin"
	HeaderReferer         = "Referer"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeTextCSV         = "text/csv; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrMissingCredentials = "login ID and password are required"
	ErrInvalidCredentials = "login failed: invalid login ID or password"
	ErrUnexpectedPage     = "login failed: unexpected page"
	ErrListUnavailable    = "could not open the payslip list page"
	ErrReturnToList       = "could not return from the detail page to the list page"
	ErrTransport          = "portal communication failed"
	ErrInvalidURL         = "invalid URL structure"
	ErrProtocol           = "unsupported protocol scheme (http/https only)"
	ErrStatus             = "portal returned unexpected status"
	ErrParseHTML          = "failed to parse portal page"
	ErrResponseTooLarge   = "portal page exceeds the size limit"
	ErrEmptyDataset       = "dataset is empty, nothing written"
	ErrDatasetWrite       = "failed to write dataset"
	ErrDatasetRead        = "failed to read dataset"
	ErrSaveDataset        = "failed to save dataset"
	ErrCredentialSave     = "failed to save credentials"
	ErrCredentialLoad     = "failed to load credentials"
	ErrBackendUnsupported = "unsupported credential backend"
	ErrCipherInit         = "cipher initialisation failed"
	ErrEncrypt            = "encryption failed"
	ErrDecrypt            = "decryption failed"
	ErrICalEncode         = "failed to encode iCalendar data"
	ErrServerStartup      = "server startup failed"
	ErrServerShutdown     = "server shutdown failed"
	ErrPortRequired       = "server port is required"
	ErrLogFile            = "failed to open log file"
	ErrCacheDir           = "could not determine user cache dir"
	ErrCreateDir          = "could not create app cache dir"
	ErrAppFailed          = "application failed unexpectedly"
	ErrWriteResp          = "failed to write response body"
	ErrLocalesAccess      = "failed to access embedded locales"
	ErrLocaleLoad         = "failed to load locale file"
	ErrSettingsLoad       = "failed to load env file"
	ErrTraceFile          = "failed to open network trace file"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Dataset initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting      = "Starting application"
	MsgAppStop          = "Application stopped gracefully"
	MsgLogWarning       = "Warning: %s at %s: %v\n"
	MsgSyncStarted      = "Synchronization started"
	MsgSyncFinished     = "Synchronization finished"
	MsgWindowComputed   = "Required month window computed"
	MsgDeltaComputed    = "Delta computed"
	MsgDeltaEmpty       = "Dataset already up to date, skipping portal"
	MsgYearFetched      = "Year fetched"
	MsgYearFailed       = "Year fetch failed, aborting remaining years"
	MsgYearSkipped      = "No months to fetch for year, skipping portal"
	MsgCredentialsSaved = "Credentials saved"
	MsgDatasetMissing   = "Dataset file not found, starting empty"
	MsgDatasetLoaded    = "Dataset loaded"
	MsgDatasetSaved     = "Dataset saved"
	MsgDatasetEmpty     = "Dataset is empty, not writing"
	MsgStep             = "Portal step"
	MsgLoginOK          = "Logged in"
	MsgLoginRejected    = "Login rejected"
	MsgListScanned      = "Payslip list scanned"
	MsgListEmpty        = "No payslips listed for year"
	MsgRowSkipped       = "Row outside delta, skipping"
	MsgDetailMissed     = "Detail page not reached, skipping month"
	MsgDetailParsed     = "Detail parsed"
	MsgDetailNoSection  = "Detail section not found"
	MsgDetailPanic      = "Detail parse aborted, using defaults"
	MsgLogoutFailed     = "Logout failed (ignored)"
	MsgNoTimestamp      = "Detail URL carries no timestamp"
	MsgNoHiddenField    = "Hidden form field missing"
	MsgMachineKeyLocal  = "Hardware address looks locally administered; saved credentials may not survive a network change"
	MsgMachineKeyFail   = "No hardware address found, using fallback key"
	MsgPlaintextToken   = "Value is not an encrypted token, passing through"
	MsgDecryptFailed    = "Decryption failed, passing value through"
	MsgEncryptFailed    = "Encryption failed, storing plaintext"
	MsgServerListen     = "HTTP server listening"
	MsgServerStop       = "Shutting down HTTP server..."
	MsgCacheUpdated     = "Served content updated"
	MsgFeedRendered     = "Calendar feed rendered"
	MsgFeedEmpty        = "No dated payslips, serving empty calendar"
	MsgLocaleSkip       = "Skipping non-locale file"
	MsgLocaleLoaded     = "Locale loaded successfully"
	MsgLocaleBadName    = "Skipping locale file with empty language code"
	MsgTransMissing     = "Missing translation key"
	MsgSettingsNoFile   = "Env file not found, using process environment"
	MsgCtxCancel        = "Context cancelled, shutting down"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWindow          = "progress_window"            // Count, Mode
	TKeyUpToDate        = "progress_up_to_date"        // -
	TKeyFetching        = "progress_fetching"          // Count
	TKeyYearStart       = "progress_year_start"        // Year
	TKeyYearDone        = "progress_year_done"         // Year, Count
	TKeyYearSkipped     = "progress_year_skipped"      // Year
	TKeyFetchDone       = "progress_fetch_done"        // Count
	TKeyFetchFailed     = "progress_fetch_failed"      // Error
	TKeySaveFailed      = "progress_save_failed"       // Error
	TKeyCredentialWarn  = "progress_credential_warn"   // Error
	TKeyNoWindow        = "progress_no_window"         // -
	TKeyModeTargeted    = "mode_targeted"              // Year
	TKeyModeFullScan    = "mode_full_scan"             // -
	TKeyReportTitle     = "report_title"               // Year
	TKeyReportTotalPay  = "report_total_pay"           // Value
	TKeyReportNetPay    = "report_net_pay"             // Value
	TKeyReportOvertime  = "report_overtime"            // Value
	TKeyReportFiscal    = "report_fiscal_overtime"     // Year, Value
	TKeyReportLeave     = "report_leave"               // Hours, Used, Remaining
	TKeyReportDataset   = "report_dataset"             // Path
	TKeyReportOtherYear = "report_other_year"          // Year, Count
	TKeyReportServing   = "report_serving"             // URL
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyYear      = "year"
	LogKeyYears     = "years"
	LogKeyCount     = "count"
	LogKeyRequired  = "required"
	LogKeyExisting  = "existing"
	LogKeyDelta     = "delta"
	LogKeyLabel     = "label"
	LogKeyStep      = "step"
	LogKeyLanding   = "landing"
	LogKeyMethod    = "method"
	LogKeyRedirects = "redirects"
	LogKeyForm      = "form"
	LogKeyField     = "field"
	LogKeyBackend   = "backend"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyRoute     = "route"
	LogKeyDuration  = "duration_ms"
	LogKeyStart     = "start"
	LogKeyEnd       = "end"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain     = "main"
	CompEngine   = "engine"
	CompPeriod   = "period"
	CompStore    = "store"
	CompPortal   = "portal"
	CompSummary  = "summary"
	CompSecret   = "secret"
	CompFeed     = "feed"
	CompServer   = "server"
	CompI18n     = "i18n"
	CompSettings = "settings"
)
