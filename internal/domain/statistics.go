package domain

// Bucket is one entry of a count distribution
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// SalaryBucket is one entry of a salary breakdown
type SalaryBucket struct {
	Key     string `json:"key"`
	Average int64  `json:"average"`
	Count   int    `json:"count"`
}

// SalaryStatistics summarizes the normalized salaries of a batch.
// Scalar figures are absent when the batch has no salary data.
type SalaryStatistics struct {
	Average      Optional[int64] `json:"averageSalary,omitzero"`
	Median       Optional[int64] `json:"medianSalary,omitzero"`
	Min          Optional[int64] `json:"minSalary,omitzero"`
	Max          Optional[int64] `json:"maxSalary,omitzero"`
	ByExperience []SalaryBucket  `json:"averageSalaryByExperience"`
	ByLocation   []SalaryBucket  `json:"averageSalaryByLocation"`
}

// JobStatistics is the aggregate view of a batch of records.
// Distributions are ordered by descending count.
type JobStatistics struct {
	TotalJobs        int              `json:"totalJobs"`
	ByEmploymentType []Bucket         `json:"jobsByEmploymentType"`
	ByWorkMode       []Bucket         `json:"jobsByWorkMode"`
	ByExperience     []Bucket         `json:"jobsByExperienceLevel"`
	TopCompanies     []Bucket         `json:"topCompanies"`
	TopLocations     []Bucket         `json:"topLocations"`
	Salary           SalaryStatistics `json:"salaryStatistics"`
}

// DataQualityMetrics describes how trustworthy a batch aggregate is
type DataQualityMetrics struct {
	TotalRecords             int     `json:"totalRecords"`
	RecordsWithSalary        int     `json:"recordsWithSalary"`
	SalaryCoveragePercent    float64 `json:"salaryCoveragePercent"`
	InsufficientSalarySignal bool    `json:"insufficientSalarySignal"`
	LimitedSampleSignal      bool    `json:"limitedSampleSignal"`
	UniqueLocationCount      int     `json:"uniqueLocationCount"`
}

// StatisticsReport pairs statistics with their quality caveats
type StatisticsReport struct {
	Statistics JobStatistics      `json:"statistics"`
	Quality    DataQualityMetrics `json:"quality"`
}

// SalaryReport pairs salary statistics with their quality caveats
type SalaryReport struct {
	Salary  SalaryStatistics   `json:"salaryStatistics"`
	Quality DataQualityMetrics `json:"quality"`
}
