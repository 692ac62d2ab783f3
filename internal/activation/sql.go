package activation

const (
	// TableName is the derived table this job owns and fully replaces on each run.
	TableName = "gold__fact_advanced_activation"

	AccountsTable      = "gold__dim_accounts"
	ProductEventsTable = "gold__fact_product_events"
	DealsTable         = "gold__fact_deals"

	// WindowDays bounds both signals: [CreatedDate, CreatedDate + WindowDays] inclusive.
	WindowDays = 14
)

// SourceTables lists the upstream tables the statement reads.
var SourceTables = []string{AccountsTable, ProductEventsTable, DealsTable}

// CreateStatement rebuilds gold__fact_advanced_activation in one atomic statement.
//
// An account is activated once it shows both core product usage (an event with
// deal context) and deal pipeline activity inside its first 14 days. The
// activation date is the later of the two first signals.
const CreateStatement = `CREATE OR REPLACE TABLE gold__fact_advanced_activation AS
WITH accounts AS (
    SELECT
        AccountId,
        CAST(CreatedDate AS DATE) AS CreatedDate
    FROM gold__dim_accounts
),

core_events AS (
    SELECT
        e.AccountId,
        MIN(CAST(e.EventDate AS DATE)) AS FirstCoreEventDate,
        COUNT(*) AS CoreEventsInFirst14Days
    FROM gold__fact_product_events e
    JOIN accounts a
      ON e.AccountId = a.AccountId
    WHERE e.HasDealContext = TRUE
      AND CAST(e.EventDate AS DATE)
          BETWEEN a.CreatedDate AND (a.CreatedDate + INTERVAL 14 DAY)
    GROUP BY 1
),

deals AS (
    SELECT
        d.AccountId,
        MIN(CAST(d.CreatedDate AS DATE)) AS FirstDealDate,
        COUNT(*) AS DealsInFirst14Days
    FROM gold__fact_deals d
    JOIN accounts a
      ON d.AccountId = a.AccountId
    WHERE CAST(d.CreatedDate AS DATE)
          BETWEEN a.CreatedDate AND (a.CreatedDate + INTERVAL 14 DAY)
    GROUP BY 1
)

SELECT
    a.AccountId,
    a.CreatedDate,
    e.FirstCoreEventDate,
    d.FirstDealDate,

    CASE
        WHEN e.FirstCoreEventDate IS NOT NULL
         AND d.FirstDealDate IS NOT NULL
        THEN GREATEST(e.FirstCoreEventDate, d.FirstDealDate)
        ELSE NULL
    END AS ActivationDate,

    CASE
        WHEN e.FirstCoreEventDate IS NOT NULL
         AND d.FirstDealDate IS NOT NULL
        THEN TRUE
        ELSE FALSE
    END AS IsActivated,

    CASE
        WHEN e.FirstCoreEventDate IS NOT NULL
         AND d.FirstDealDate IS NOT NULL
        THEN DATE_DIFF(
            'day',
            a.CreatedDate,
            GREATEST(e.FirstCoreEventDate, d.FirstDealDate)
        )
        ELSE NULL
    END AS TimeToValueDays,

    COALESCE(e.CoreEventsInFirst14Days, 0) AS CoreEventsInFirst14Days,
    COALESCE(d.DealsInFirst14Days, 0)      AS DealsInFirst14Days

FROM accounts a
LEFT JOIN core_events e
    ON a.AccountId = e.AccountId
LEFT JOIN deals d
    ON a.AccountId = d.AccountId
ORDER BY a.AccountId`

// selectFacts reads the table back in the order it was written.
const selectFacts = `SELECT
    CAST(AccountId AS VARCHAR),
    CreatedDate,
    FirstCoreEventDate,
    FirstDealDate,
    ActivationDate,
    IsActivated,
    TimeToValueDays,
    CoreEventsInFirst14Days,
    DealsInFirst14Days
FROM gold__fact_advanced_activation
ORDER BY AccountId`
