package classifier

import "regexp"

// Scoring weights. Each named weight maps to one factor class in a
// ScoreBreakdown so tests can pin exact totals.
const (
	weightHighPriorityPath   = 5
	weightMediumPriorityPath = 3
	weightKeywordHit         = 2
	weightExactPattern       = 4
	weightCareerQueryParam   = 1
	weightJobQueryParam      = 2
	weightLinkText           = 3
	weightClassIndicator     = 2
	weightIDIndicator        = 2
	weightDataAttrIndicator  = 1
	weightCleanCareerPath    = 2
	weightCleanJobPath       = 3

	penaltyNonTargetKeyword = -3
	penaltyContainsIDs      = -2
	penaltyJobContainsIDs   = -1
	penaltySpecialChars     = -1
	penaltyGenericPath      = -2

	// Keyword hits are capped so no single category dominates the total.
	maxKeywordHits = 3

	// Soft depth thresholds. Levels beyond these accrue a per-level penalty.
	careerSoftDepth = 3
	jobSoftDepth    = 4

	// Per-level depth penalties past the soft threshold.
	careerDepthPenaltyPerLevel = 1
	jobDepthPenaltyPerLevel    = 2

	// Hard ceiling checked during early rejection.
	maxPathDepth = 5

	// Content corroboration needs this many body-text hits when neither the
	// title nor the meta description carries a keyword.
	contentIndicatorMinimum = 2
)

// High-priority path tokens for career pages. First match only.
var careerHighPriorityPatterns = []string{
	"/tuyen-dung", "/tuyển-dụng", "/tuyendung",
	"/career", "/careers", "/job", "/jobs",
	"/recruitment", "/hiring", "/employment",
}

// Medium-priority path tokens for career pages. First match only.
var careerMediumPriorityPatterns = []string{
	"/viec-lam", "/việc-làm", "/vieclam",
	"/co-hoi", "/cơ-hội", "/cohoi",
	"/nhan-vien", "/nhân-viên", "/nhanvien",
	"/ung-vien", "/ứng-viên", "/ungvien",
	"/position", "/positions", "/opportunity",
	"/vacancy", "/vacancies", "/apply",
}

// High-priority path tokens for individual job links. First match only.
var jobHighPriorityPatterns = []string{
	"/job/", "/jobs/", "/position/", "/positions/",
	"/career/", "/careers/", "/opportunity/", "/opportunities/",
	"/vacancy/", "/vacancies/", "/opening/", "/openings/",
	"/apply/", "/application/", "/applications/",
	"/tuyen-dung/", "/tuyển-dụng/", "/tuyendung/",
	"/viec-lam/", "/việc-làm/", "/vieclam/",
	"/co-hoi/", "/cơ-hội/", "/cohoi/",
}

// Medium-priority path tokens for job links. First match only.
var jobMediumPriorityPatterns = []string{
	"/hiring/", "/recruitment/", "/employment/",
	"/join-us/", "/joinus/", "/work-with-us/", "/workwithus/",
	"/team/", "/talent/", "/people/", "/staff/",
	"/nhan-vien/", "/nhân-viên/", "/nhanvien/",
	"/ung-vien/", "/ứng-viên/", "/ungvien/",
	"/cong-viec/", "/công-việc/", "/congviec/",
	"/lam-viec/", "/làm-việc/", "/lamviec/",
}

// Career keywords scored in path or query, Vietnamese and English.
var careerKeywords = []string{
	"tuyen-dung", "tuyển-dụng", "tuyendung",
	"viec-lam", "việc-làm", "vieclam",
	"co-hoi", "cơ-hội", "cohoi",
	"nghe-nghiep", "nghề-nghiệp", "nghenghiep",
	"tim-viec", "tìm-việc", "timviec",
	"dang-tuyen", "đang-tuyển", "dangtuyen",
	"career", "careers", "job", "jobs",
	"recruitment", "employment", "hiring",
	"vacancy", "opportunity", "apply",
	"join-us", "talent", "we-are-hiring",
	"work-with-us", "join-our-team", "open-role", "open-roles",
	"internship", "intern", "graduate", "entry-level",
}

// Role keywords scored in job link paths.
var jobRoleKeywords = []string{
	"developer", "dev", "engineer", "programmer", "analyst",
	"designer", "manager", "lead", "architect", "consultant",
	"specialist", "coordinator", "assistant", "director",
	"frontend", "backend", "fullstack", "mobile", "web",
	"data", "ai", "ml", "devops", "qa", "test",
	"ui", "ux", "product", "business", "marketing",
	"sales", "customer", "support", "hr",
}

// Exact path patterns worth a standalone bonus. First match only.
var careerExactPatterns = []string{
	"/tuyen-dung", "/tuyển-dụng", "/tuyendung",
	"/viec-lam", "/việc-làm", "/vieclam",
	"/co-hoi", "/cơ-hội", "/cohoi",
	"/nghe-nghiep", "/nghề-nghiệp", "/nghenghiep",
	"/tim-viec", "/tìm-việc", "/timviec",
	"/dang-tuyen", "/đang-tuyển", "/dangtuyen",
	"/career", "/careers", "/job", "/jobs", "/hiring", "/recruitment",
	"/employment", "/vacancy", "/vacancies", "/opportunity", "/opportunities",
	"/position", "/positions", "/apply", "/application", "/applications",
	"/join-us", "/joinus", "/work-with-us", "/workwithus",
	"/open-role", "/open-roles", "/openrole", "/openroles",
	"/we-are-hiring", "/wearehiring", "/talent", "/team",
}

// Query parameters that signal career or job intent.
var careerQueryParams = []string{"job", "career", "position", "hiring", "recruitment", "apply"}
var jobQueryParams = []string{"job", "position", "career", "hiring", "recruitment", "apply", "id"}

// Clean paths: the whole path is exactly one recognized token.
var cleanCareerPaths = []string{
	"/career", "/careers", "/job", "/jobs", "/tuyen-dung", "/viec-lam",
}

// Clean job paths: the path sits directly under a recognized job segment.
var cleanJobPathPrefixes = []string{
	"/job/", "/jobs/", "/position/", "/career/", "/careers/", "/apply/",
}

// Anchor text that marks a link as pointing at a job posting. First match only.
var jobTextIndicators = []string{
	"apply", "apply now", "apply for this position",
	"view job", "view position", "view opportunity",
	"job details", "position details", "opportunity details",
	"join our team", "work with us", "join us",
	"tuyển dụng", "việc làm", "cơ hội", "vị trí",
	"ứng tuyển", "nộp đơn", "xem chi tiết",
	"developer", "engineer", "designer", "manager",
	"full-time", "part-time", "remote", "hybrid",
}

// Class, id and data-attribute values that mark job-related elements.
var jobAttrIndicators = []string{"job", "career", "position", "opportunity", "vacancy", "apply"}

// Hard negative path segments checked during early rejection.
var nonCareerIndicators = []string{
	"blog", "news", "article", "press", "media", "tin-tuc",
	"product", "service", "solution", "about", "contact",
	"admin", "login", "register", "signup", "signin", "cart",
	"checkout", "payment", "webinar", "case-study", "whitepaper",
}

var nonJobIndicators = []string{
	"blog", "news", "article", "press", "media", "tin-tuc",
	"product", "service", "solution", "about", "contact",
	"admin", "login", "register", "signup", "signin", "cart",
	"checkout", "payment", "dashboard", "profile", "settings",
	"account", "search", "filter", "sort", "category", "tag",
	"author", "user", "member",
}

// Scoring-phase keyword penalties, narrower than the early-rejection lists.
var nonCareerKeywords = []string{"blog", "news", "article", "product", "service", "about", "contact"}
var nonJobKeywords = []string{"blog", "news", "article", "product", "service", "about", "contact", "home"}

// Generic list/detail path segments penalized for job links.
var genericJobPaths = []string{"/page/", "/item/", "/detail/", "/view/", "/show/"}

// Text indicators used for content corroboration.
var careerContentIndicators = []string{
	"tuyển dụng", "việc làm", "career", "job", "hiring", "recruitment",
	"apply now", "join our team", "work with us", "open position",
}

var jobContentIndicators = []string{
	"apply now", "apply for this position", "submit application",
	"job description", "position requirements", "job benefits",
	"tuyển dụng", "việc làm", "cơ hội", "vị trí",
	"ứng tuyển", "nộp đơn", "mô tả công việc", "yêu cầu công việc",
}

var careerTitleIndicators = []string{
	"career", "job", "tuyển dụng", "việc làm", "hiring", "recruitment",
}

var jobTitleIndicators = []string{
	"job", "position", "career", "opportunity", "vacancy",
	"tuyển dụng", "việc làm", "cơ hội", "vị trí",
}

// File extensions rejected outright.
var rejectedFileExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".jpg", ".jpeg", ".png", ".gif", ".mp4", ".avi", ".zip",
	".rar", ".7z", ".tar", ".gz", ".exe", ".dmg", ".pkg",
}

// Date-shaped path segments, typical of news archives.
var rejectedDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/\d{4}[/-]\d{1,2}[/-]\d{1,2}`),
	regexp.MustCompile(`/\d{4}/\d{1,2}`),
	regexp.MustCompile(`/\d{1,2}/\d{4}`),
}

// ID-shaped path segments, typical of article or record detail pages.
var rejectedIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/[a-f0-9]{8,}`),
	regexp.MustCompile(`/\d{5,}`),
	regexp.MustCompile(`/[a-z0-9]{10,}`),
}

// Residual suspicious patterns checked at acceptance time.
var (
	yearSegmentPattern  = regexp.MustCompile(`/\d{4}`)
	longHexPattern      = regexp.MustCompile(`/[a-f0-9]{8,}`)
	longNumericPattern  = regexp.MustCompile(`/\d{5,}`)
	numericIDPattern    = regexp.MustCompile(`/\d+`)
	mediumHexPattern    = regexp.MustCompile(`/[a-f0-9]{4,}`)
	specialCharsPattern = regexp.MustCompile(`[%&$#@!]`)
)

// Hosted job board platforms. Links out to these are flagged as boards
// rather than scored as first-party career pages.
var jobBoardDomains = map[string]struct{}{
	"topcv.vn": {}, "careerbuilder.vn": {}, "jobstreet.vn": {}, "vietnamworks.com": {},
	"mywork.com.vn": {}, "123job.vn": {}, "timviec365.vn": {}, "careerlink.vn": {},
	"indeed.com": {}, "glassdoor.com": {}, "monster.com": {},
	"ziprecruiter.com": {}, "simplyhired.com": {}, "dice.com": {}, "angel.co": {},
	"remote.co": {}, "weworkremotely.com": {}, "lever.co": {}, "greenhouse.io": {},
	"workable.com": {}, "recruitee.com": {},
}
